package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfDestruct_DestructibleNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _, sess := newTestStore(t)
	policy := NewSelfDestructPolicy(store)

	id, err := store.Create(ctx, sess, NoteEntry{Title: "burn", Content: "once", Destructible: true}, nil)
	require.NoError(t, err)

	require.NoError(t, policy.MarkViewed(ctx, sess, id))

	// still readable while the viewer is open
	item, err := store.DecryptOne(ctx, sess, id)
	require.NoError(t, err)
	entry, _ := item.Envelope.Unwrap()
	note := entry.(NoteEntry)
	assert.True(t, note.HasBeenViewed)
	assert.Equal(t, "once", note.Content)

	require.NoError(t, policy.ViewerClosed(ctx, sess, id))

	items, err := store.List(ctx, sess)
	require.NoError(t, err)
	for _, it := range items {
		assert.NotEqual(t, id, it.ID, "destructible note must be gone after the viewer closes")
	}
}

func TestSelfDestruct_NonDestructibleSurvives(t *testing.T) {
	ctx := context.Background()
	store, _, sess := newTestStore(t)
	policy := NewSelfDestructPolicy(store)

	id, err := store.Create(ctx, sess, NoteEntry{Title: "keep", Content: "forever"}, nil)
	require.NoError(t, err)

	require.NoError(t, policy.MarkViewed(ctx, sess, id))
	require.NoError(t, policy.ViewerClosed(ctx, sess, id))

	item, err := store.DecryptOne(ctx, sess, id)
	require.NoError(t, err)
	entry, _ := item.Envelope.Unwrap()
	note := entry.(NoteEntry)
	assert.False(t, note.HasBeenViewed)
	assert.Equal(t, "forever", note.Content)
}

func TestSelfDestruct_MarkViewedIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _, sess := newTestStore(t)
	policy := NewSelfDestructPolicy(store)

	id, err := store.Create(ctx, sess, NoteEntry{Title: "burn", Content: "once", Destructible: true}, nil)
	require.NoError(t, err)

	require.NoError(t, policy.MarkViewed(ctx, sess, id))
	require.NoError(t, policy.MarkViewed(ctx, sess, id))

	_, err = store.DecryptOne(ctx, sess, id)
	require.NoError(t, err, "marking twice must not delete")
}

func TestSelfDestruct_ViewerClosedWithoutView(t *testing.T) {
	ctx := context.Background()
	store, _, sess := newTestStore(t)
	policy := NewSelfDestructPolicy(store)

	id, err := store.Create(ctx, sess, NoteEntry{Title: "burn", Content: "once", Destructible: true}, nil)
	require.NoError(t, err)

	// closing a viewer that never marked the note viewed is a no-op
	require.NoError(t, policy.ViewerClosed(ctx, sess, id))
	_, err = store.DecryptOne(ctx, sess, id)
	require.NoError(t, err)
}

func TestSelfDestruct_SweepFinishesInterruptedDeletion(t *testing.T) {
	ctx := context.Background()
	store, _, sess := newTestStore(t)

	policy := NewSelfDestructPolicy(store)
	id, err := store.Create(ctx, sess, NoteEntry{Title: "burn", Content: "once", Destructible: true}, nil)
	require.NoError(t, err)
	require.NoError(t, policy.MarkViewed(ctx, sess, id))

	// the process dies before ViewerClosed; a new policy instance sweeps
	fresh := NewSelfDestructPolicy(store)
	require.NoError(t, fresh.Sweep(ctx, sess))

	items, err := store.List(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSelfDestruct_SweepSkipsOpenViewer(t *testing.T) {
	ctx := context.Background()
	store, _, sess := newTestStore(t)
	policy := NewSelfDestructPolicy(store)

	id, err := store.Create(ctx, sess, NoteEntry{Title: "burn", Content: "once", Destructible: true}, nil)
	require.NoError(t, err)
	require.NoError(t, policy.MarkViewed(ctx, sess, id))

	// a sweep within the same session must not pull the note out from
	// under its open viewer
	require.NoError(t, policy.Sweep(ctx, sess))
	_, err = store.DecryptOne(ctx, sess, id)
	require.NoError(t, err)
}
