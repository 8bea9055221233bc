// Package share implements the ephemeral sharing protocol: issuing a
// token re-encrypts one decrypted vault item under a fresh single-use key,
// resolving a token enforces expiry and view limits atomically, and
// expired or exhausted tokens are garbage collected both lazily and
// eagerly. The share key travels only in the share URL; it is never
// persisted, so the stored metadata alone can never decrypt the payload.
package share

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digivault/digivault/internal/common"
	"github.com/digivault/digivault/internal/cryptox"
	"github.com/digivault/digivault/internal/keymanager"
	"github.com/digivault/digivault/internal/kv"
	"github.com/digivault/digivault/internal/logging"
	"github.com/digivault/digivault/internal/vault"
)

// UnlimitedViews is the sentinel maxViews value for tokens that never evict
// due to view count; only expiration applies to them.
const UnlimitedViews = -1

const (
	tokenIDBytes  = 16
	shareKeyBytes = 32
)

// Token is the owner-visible metadata of one share. The single-use
// encryption key is deliberately absent: possession of the key plus the
// payload blob is necessary and sufficient to decrypt, and this struct must
// never be sufficient.
type Token struct {
	ID             string           `json:"id"`
	OwnerEmail     string           `json:"owner_email"`
	SourceRecordID string           `json:"source_record_id"`
	RecordType     vault.RecordType `json:"record_type"`
	Title          string           `json:"title"`
	ExpiresAt      time.Time        `json:"expires_at"`
	MaxViews       int              `json:"max_views"`
	CurrentViews   int              `json:"current_views"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt *time.Time       `json:"last_accessed_at,omitempty"`
}

func (t *Token) expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *Token) exhausted() bool {
	return t.MaxViews != UnlimitedViews && t.CurrentViews >= t.MaxViews
}

// payloadBlob is persisted under share/data/<id>. The owner email is the
// pointer back to the metadata record; it grants no access to the payload.
type payloadBlob struct {
	OwnerEmail string `json:"owner_email"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Item is the decrypted shared record as delivered to a viewer.
type Item struct {
	Type     vault.RecordType     `json:"type"`
	Title    string               `json:"title"`
	Password *vault.PasswordEntry `json:"password,omitempty"`
	Note     *vault.NoteEntry     `json:"note,omitempty"`
	Document *vault.DocumentEntry `json:"document,omitempty"`
	Payload  []byte               `json:"payload,omitempty"`
}

// Service issues, resolves, lists, and revokes share tokens. Its encryption
// domain is fully independent from the vault's: each token gets a fresh
// random key unrelated to the owner's master key.
type Service struct {
	kv     kv.Store
	store  *vault.Store
	auth   *keymanager.Manager
	logger logging.Logger
	now    func() time.Time
}

func NewService(store kv.Store, vaultStore *vault.Store, auth *keymanager.Manager, logger logging.Logger) *Service {
	return &Service{
		kv:     store,
		store:  vaultStore,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// ShareURL composes the viewer-facing link. The URL is the only channel
// that ever carries the share key.
func ShareURL(origin, id, key string) string {
	return fmt.Sprintf("%s/share/%s?key=%s", origin, id, key)
}

// Issue creates a share token for one vault record: the record is decrypted
// with the session's master key, serialized, and re-encrypted under a fresh
// single-use key. The ciphertext is stored keyed by token id alone, the
// metadata under the owner, and (id, key) are returned for URL composition.
func (s *Service) Issue(ctx context.Context, sess *keymanager.Session, recordID string, ttl time.Duration, maxViews int) (id, key string, err error) {
	if err := s.auth.VerifySession(sess); err != nil {
		return "", "", err
	}
	if ttl <= 0 {
		return "", "", fmt.Errorf("%w: ttl must be positive", common.ErrValidation)
	}
	if maxViews < 1 && maxViews != UnlimitedViews {
		return "", "", fmt.Errorf("%w: maxViews must be >= 1 or unlimited", common.ErrValidation)
	}

	record, err := s.store.DecryptOne(ctx, sess, recordID)
	if err != nil {
		return "", "", err
	}
	item, err := itemFromRecord(record)
	if err != nil {
		return "", "", err
	}

	id = common.MakeRandHexString(tokenIDBytes)
	keyBytes := common.GenerateRandByteArray(shareKeyBytes)
	key = hex.EncodeToString(keyBytes)

	ciphertext, nonce, err := cryptox.EncryptEntry(item, keyBytes)
	if err != nil {
		return "", "", fmt.Errorf("share encryption error: %w", err)
	}

	blob := payloadBlob{OwnerEmail: sess.Email, Nonce: nonce, Ciphertext: ciphertext}
	blobData, err := json.Marshal(blob)
	if err != nil {
		return "", "", err
	}

	now := s.now().UTC()
	meta := Token{
		ID:             id,
		OwnerEmail:     sess.Email,
		SourceRecordID: recordID,
		RecordType:     item.Type,
		Title:          item.Title,
		ExpiresAt:      now.Add(ttl),
		MaxViews:       maxViews,
		CreatedAt:      now,
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return "", "", err
	}

	if err := s.kv.Set(ctx, kv.ShareDataKey(id), blobData); err != nil {
		return "", "", fmt.Errorf("share payload save error: %w", err)
	}
	if err := s.kv.Set(ctx, kv.ShareMetaKey(sess.Email, id), metaData); err != nil {
		return "", "", fmt.Errorf("share metadata save error: %w", err)
	}

	s.logger.Info(ctx, "share issued", "token", id, "record", recordID, "expires_at", meta.ExpiresAt)
	return id, key, nil
}

func itemFromRecord(record *vault.Item) (*Item, error) {
	entry, err := record.Envelope.Unwrap()
	if err != nil {
		return nil, err
	}

	item := &Item{Type: record.Envelope.Type, Title: record.Envelope.Title}
	switch v := entry.(type) {
	case vault.PasswordEntry:
		item.Password = &v
	case vault.NoteEntry:
		item.Note = &v
	case vault.DocumentEntry:
		item.Document = &v
		item.Payload = record.Payload
	default:
		return nil, fmt.Errorf("%w: unsupported record type %q", common.ErrValidation, record.Envelope.Type)
	}
	return item, nil
}

// Resolve fetches and decrypts the shared item for a viewer. The checks run
// in a fixed order: missing token, expiry, exhausted views, then key. A
// wrong key never consumes a view. On success the view is consumed through
// an atomic read-modify-write: the counter increment re-validates the token
// under the store's lock, so two concurrent resolves of a one-view token
// cannot both succeed, and the view that crosses the limit evicts the token
// within the same resolution.
func (s *Service) Resolve(ctx context.Context, id, key string) (*Item, error) {
	blobData, err := s.kv.Get(ctx, kv.ShareDataKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, common.ErrShareNotFound
		}
		return nil, fmt.Errorf("share payload load error: %w", err)
	}
	var blob payloadBlob
	if err := json.Unmarshal(blobData, &blob); err != nil {
		return nil, fmt.Errorf("share payload decode error: %w", err)
	}

	metaKey := kv.ShareMetaKey(blob.OwnerEmail, id)
	metaData, err := s.kv.Get(ctx, metaKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			// orphaned payload, clean it up
			s.evict(ctx, blob.OwnerEmail, id)
			return nil, common.ErrShareNotFound
		}
		return nil, fmt.Errorf("share metadata load error: %w", err)
	}
	var meta Token
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("share metadata decode error: %w", err)
	}

	now := s.now().UTC()
	if meta.expired(now) {
		s.evict(ctx, blob.OwnerEmail, id)
		return nil, common.ErrShareExpired
	}
	if meta.exhausted() {
		s.evict(ctx, blob.OwnerEmail, id)
		return nil, common.ErrShareViewLimit
	}

	keyBytes, err := hex.DecodeString(key)
	if err != nil || len(keyBytes) != shareKeyBytes {
		return nil, common.ErrShareInvalidKey
	}
	var item Item
	if err := cryptox.DecryptEntry(blob.Ciphertext, blob.Nonce, keyBytes, &item); err != nil {
		if errors.Is(err, common.ErrDecrypt) {
			return nil, common.ErrShareInvalidKey
		}
		return nil, err
	}

	// consume one view; the closure re-checks against the current value so
	// a concurrent resolver cannot slip past the limit
	evicted := false
	err = s.kv.Update(ctx, metaKey, func(cur []byte) ([]byte, error) {
		var m Token
		if err := json.Unmarshal(cur, &m); err != nil {
			return nil, fmt.Errorf("share metadata decode error: %w", err)
		}
		if m.expired(s.now().UTC()) {
			return nil, common.ErrShareExpired
		}
		if m.exhausted() {
			return nil, common.ErrShareViewLimit
		}
		m.CurrentViews++
		accessed := s.now().UTC()
		m.LastAccessedAt = &accessed
		if m.exhausted() {
			evicted = true
			return nil, kv.ErrRemove
		}
		return json.Marshal(m)
	})
	switch {
	case errors.Is(err, kv.ErrNotFound):
		// evicted by a concurrent resolve between our read and the update
		s.evict(ctx, blob.OwnerEmail, id)
		return nil, common.ErrShareNotFound
	case errors.Is(err, common.ErrShareExpired), errors.Is(err, common.ErrShareViewLimit):
		s.evict(ctx, blob.OwnerEmail, id)
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("share view accounting error: %w", err)
	}

	if evicted {
		// the metadata went away atomically with the final view; drop the
		// ciphertext too so the token is fully gone
		if derr := s.kv.Delete(ctx, kv.ShareDataKey(id)); derr != nil {
			s.logger.Warn(ctx, "share payload cleanup failed", "token", id, "error", derr)
		}
	}
	return &item, nil
}

// List returns the owner's active share tokens. Entries already expired or
// view-exhausted are evicted on the way; time advances independently of
// writes, so the filter runs fresh on every call.
func (s *Service) List(ctx context.Context, sess *keymanager.Session) ([]Token, error) {
	if err := s.auth.VerifySession(sess); err != nil {
		return nil, err
	}

	keys, err := s.kv.ListKeys(ctx, kv.ShareMetaPrefix(sess.Email))
	if err != nil {
		return nil, fmt.Errorf("share enumeration error: %w", err)
	}

	now := s.now().UTC()
	tokens := make([]Token, 0, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("share metadata load error: %w", err)
		}
		var meta Token
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("share metadata decode error: %w", err)
		}
		if meta.expired(now) || meta.exhausted() {
			s.evict(ctx, sess.Email, meta.ID)
			continue
		}
		tokens = append(tokens, meta)
	}
	return tokens, nil
}

// Revoke deletes a token's metadata and ciphertext. Revoking an unknown or
// already-gone token is a no-op.
func (s *Service) Revoke(ctx context.Context, sess *keymanager.Session, id string) error {
	if err := s.auth.VerifySession(sess); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, kv.ShareMetaKey(sess.Email, id)); err != nil {
		return fmt.Errorf("share metadata delete error: %w", err)
	}

	// the blob is keyed by id alone; only remove it if it belongs to this owner
	blobData, err := s.kv.Get(ctx, kv.ShareDataKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("share payload load error: %w", err)
	}
	var blob payloadBlob
	if err := json.Unmarshal(blobData, &blob); err != nil {
		return fmt.Errorf("share payload decode error: %w", err)
	}
	if blob.OwnerEmail != sess.Email {
		return nil
	}
	if err := s.kv.Delete(ctx, kv.ShareDataKey(id)); err != nil {
		return fmt.Errorf("share payload delete error: %w", err)
	}
	return nil
}

// evict is best-effort housekeeping for tokens past their lifecycle;
// failures are logged and swallowed, the next pass will retry.
func (s *Service) evict(ctx context.Context, ownerEmail, id string) {
	if err := s.kv.Delete(ctx, kv.ShareMetaKey(ownerEmail, id)); err != nil {
		s.logger.Warn(ctx, "share metadata eviction failed", "token", id, "error", err)
	}
	if err := s.kv.Delete(ctx, kv.ShareDataKey(id)); err != nil {
		s.logger.Warn(ctx, "share payload eviction failed", "token", id, "error", err)
	}
}
