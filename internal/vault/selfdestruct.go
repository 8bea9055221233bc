package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/digivault/digivault/internal/keymanager"
)

// SelfDestructPolicy drives the two-phase lifecycle of destructible notes:
// Unviewed -> Viewed (persisted on first view) -> Deleted (committed only
// after the viewing surface is dismissed). Splitting the transition keeps
// the note readable for the whole viewing session and makes it disappear
// deterministically afterwards, exactly once.
type SelfDestructPolicy struct {
	store *Store

	mu      sync.Mutex
	pending map[string]struct{} // viewed this session, awaiting ViewerClosed
}

func NewSelfDestructPolicy(store *Store) *SelfDestructPolicy {
	return &SelfDestructPolicy{store: store, pending: make(map[string]struct{})}
}

// MarkViewed transitions a destructible note from Unviewed to Viewed and
// persists the flag. It is a no-op for non-destructible notes, for other
// record types, and for notes already viewed.
func (p *SelfDestructPolicy) MarkViewed(ctx context.Context, sess *keymanager.Session, id string) error {
	item, err := p.store.DecryptOne(ctx, sess, id)
	if err != nil {
		return err
	}

	entry, err := item.Envelope.Unwrap()
	if err != nil {
		return err
	}
	note, ok := entry.(NoteEntry)
	if !ok || !note.Destructible {
		return nil
	}

	if !note.HasBeenViewed {
		note.HasBeenViewed = true
		if err := p.store.Update(ctx, sess, id, note, nil); err != nil {
			return fmt.Errorf("marking note viewed: %w", err)
		}
	}

	p.mu.Lock()
	p.pending[id] = struct{}{}
	p.mu.Unlock()
	return nil
}

// ViewerClosed commits the deferred deletion of a note previously marked
// viewed. Calling it for an id with no pending deletion is a no-op, so the
// deletion happens at most once even if the surface reports closing twice.
func (p *SelfDestructPolicy) ViewerClosed(ctx context.Context, sess *keymanager.Session, id string) error {
	p.mu.Lock()
	_, ok := p.pending[id]
	delete(p.pending, id)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return p.store.Delete(ctx, sess, id)
}

// Sweep deletes destructible notes that were viewed but whose deletion was
// never committed, e.g. because the process died between the two phases.
// Run it right after login; it is what makes the deferred deletion
// guaranteed rather than best-effort.
func (p *SelfDestructPolicy) Sweep(ctx context.Context, sess *keymanager.Session) error {
	items, err := p.store.List(ctx, sess)
	if err != nil {
		return err
	}

	p.mu.Lock()
	pending := make(map[string]struct{}, len(p.pending))
	for id := range p.pending {
		pending[id] = struct{}{}
	}
	p.mu.Unlock()

	for _, item := range items {
		entry, err := item.Envelope.Unwrap()
		if err != nil {
			return err
		}
		note, ok := entry.(NoteEntry)
		if !ok || !note.Destructible || !note.HasBeenViewed {
			continue
		}
		if _, open := pending[item.ID]; open {
			continue // its viewer is still on screen
		}
		if err := p.store.Delete(ctx, sess, item.ID); err != nil {
			return err
		}
	}
	return nil
}
