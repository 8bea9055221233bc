package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/digivault/digivault/internal/common"
	"github.com/digivault/digivault/internal/cryptox"
	"github.com/digivault/digivault/internal/keymanager"
	"github.com/digivault/digivault/internal/kv"
	"github.com/digivault/digivault/internal/logging"
	"github.com/google/uuid"
)

// MaxDocumentSize caps uploaded document payloads at 10 MiB.
const MaxDocumentSize = 10 << 20

// Store owns the encrypted record collection of one owner. Every operation
// takes the explicit session created at login; secret fields are encrypted
// with the session's master key before anything reaches the kv store and
// decrypted only transiently on the way out.
type Store struct {
	kv     kv.Store
	auth   *keymanager.Manager
	logger logging.Logger
	now    func() time.Time
}

func NewStore(store kv.Store, auth *keymanager.Manager, logger logging.Logger) *Store {
	return &Store{kv: store, auth: auth, logger: logger, now: time.Now}
}

func (s *Store) validate(entry TypedEntry, payload []byte) error {
	if entry == nil {
		return fmt.Errorf("%w: missing record payload", common.ErrValidation)
	}
	if entry.GetTitle() == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if entry.GetType() == RecordTypeDocument {
		if len(payload) > MaxDocumentSize {
			return fmt.Errorf("%w: document exceeds %d bytes", common.ErrValidation, MaxDocumentSize)
		}
		return nil
	}
	if payload != nil {
		return fmt.Errorf("%w: only documents carry a file payload", common.ErrValidation)
	}
	return nil
}

// seal builds the persisted Record from a plaintext entry.
func (s *Store) seal(sess *keymanager.Session, id string, createdAt time.Time, entry TypedEntry, payload []byte) (*Record, error) {
	envelope, err := Wrap(entry)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := cryptox.EncryptEntry(envelope, sess.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	rec := &Record{
		ID:         id,
		Type:       entry.GetType(),
		CreatedAt:  createdAt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	if payload != nil {
		blob, blobNonce, err := cryptox.EncryptBytes(payload, sess.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("payload encryption error: %w", err)
		}
		rec.Blob = blob
		rec.BlobNonce = blobNonce
	}
	return rec, nil
}

func (s *Store) open(sess *keymanager.Session, rec *Record) (*Item, error) {
	var envelope Envelope
	if err := cryptox.DecryptEntry(rec.Ciphertext, rec.Nonce, sess.MasterKey, &envelope); err != nil {
		return nil, err
	}

	item := &Item{ID: rec.ID, CreatedAt: rec.CreatedAt, Envelope: envelope}
	if rec.Blob != nil {
		payload, err := cryptox.DecryptBytes(rec.Blob, rec.BlobNonce, sess.MasterKey)
		if err != nil {
			return nil, err
		}
		item.Payload = payload
	}
	return item, nil
}

func (s *Store) put(ctx context.Context, sess *keymanager.Session, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, kv.RecordKey(sess.Email, rec.ID), data); err != nil {
		return fmt.Errorf("record save error: %w", err)
	}
	return nil
}

// Create encrypts the entry (and, for documents, the raw payload bytes)
// under the session's master key and persists it under a fresh unique id.
func (s *Store) Create(ctx context.Context, sess *keymanager.Session, entry TypedEntry, payload []byte) (string, error) {
	if err := s.auth.VerifySession(sess); err != nil {
		return "", err
	}
	if err := s.validate(entry, payload); err != nil {
		return "", err
	}
	if doc, ok := entry.(DocumentEntry); ok {
		if payload == nil {
			return "", fmt.Errorf("%w: document payload is required", common.ErrValidation)
		}
		doc.SizeBytes = int64(len(payload))
		entry = doc
	}

	rec, err := s.seal(sess, uuid.NewString(), s.now().UTC(), entry, payload)
	if err != nil {
		return "", err
	}
	if err := s.put(ctx, sess, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// List returns every record of the owner, decrypted for display, ordered by
// insertion into the persisted collection.
func (s *Store) List(ctx context.Context, sess *keymanager.Session) ([]Item, error) {
	if err := s.auth.VerifySession(sess); err != nil {
		return nil, err
	}

	keys, err := s.kv.ListKeys(ctx, kv.RecordPrefix(sess.Email))
	if err != nil {
		return nil, fmt.Errorf("record enumeration error: %w", err)
	}

	items := make([]Item, 0, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				continue // deleted concurrently
			}
			return nil, fmt.Errorf("record load error: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("record decode error: %w", err)
		}
		item, err := s.open(sess, &rec)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Update re-encrypts the record under the current master key, preserving
// the original id and creation time. The record's type is fixed at creation;
// an entry of a different type is rejected with ErrValidation. For documents
// a nil payload keeps the previously stored blob.
func (s *Store) Update(ctx context.Context, sess *keymanager.Session, id string, entry TypedEntry, payload []byte) error {
	if err := s.auth.VerifySession(sess); err != nil {
		return err
	}
	if err := s.validate(entry, payload); err != nil {
		return err
	}

	data, err := s.kv.Get(ctx, kv.RecordKey(sess.Email, id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("record load error: %w", err)
	}
	var prev Record
	if err := json.Unmarshal(data, &prev); err != nil {
		return fmt.Errorf("record decode error: %w", err)
	}
	if entry.GetType() != prev.Type {
		return fmt.Errorf("%w: record type cannot change from %q to %q",
			common.ErrValidation, prev.Type, entry.GetType())
	}

	if doc, ok := entry.(DocumentEntry); ok && payload != nil {
		doc.SizeBytes = int64(len(payload))
		entry = doc
	}

	rec, err := s.seal(sess, id, prev.CreatedAt, entry, payload)
	if err != nil {
		return err
	}
	if rec.Blob == nil && entry.GetType() == RecordTypeDocument {
		rec.Blob = prev.Blob
		rec.BlobNonce = prev.BlobNonce
	}
	return s.put(ctx, sess, rec)
}

// Delete removes a record. Removing an absent id is not an error.
func (s *Store) Delete(ctx context.Context, sess *keymanager.Session, id string) error {
	if err := s.auth.VerifySession(sess); err != nil {
		return err
	}
	return s.kv.Delete(ctx, kv.RecordKey(sess.Email, id))
}

// DecryptOne loads and decrypts a single record. Ciphertext written under a
// different key than the current session's surfaces as common.ErrDecrypt,
// never as garbled plaintext.
func (s *Store) DecryptOne(ctx context.Context, sess *keymanager.Session, id string) (*Item, error) {
	if err := s.auth.VerifySession(sess); err != nil {
		return nil, err
	}

	data, err := s.kv.Get(ctx, kv.RecordKey(sess.Email, id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("record load error: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("record decode error: %w", err)
	}
	return s.open(sess, &rec)
}
