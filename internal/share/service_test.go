package share

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/digivault/digivault/internal/common"
	"github.com/digivault/digivault/internal/keymanager"
	"github.com/digivault/digivault/internal/kv"
	"github.com/digivault/digivault/internal/kv/memkv"
	"github.com/digivault/digivault/internal/logging"
	"github.com/digivault/digivault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestService wires a full stack (auth, vault, shares) over one in-memory
// store and returns a live session plus one stored password record.
func newTestService(t *testing.T) (*Service, *keymanager.Session, string) {
	t.Helper()
	ctx := context.Background()

	store := memkv.New()
	auth := keymanager.NewManager(store, time.Hour)
	require.NoError(t, auth.Register(ctx, "a@x.com", []byte("pw123456")))
	sess, err := auth.Login(ctx, "a@x.com", []byte("pw123456"))
	require.NoError(t, err)

	vaultStore := vault.NewStore(store, auth, testLogger())
	recordID, err := vaultStore.Create(ctx, sess, vault.PasswordEntry{Title: "mail", Username: "a", Secret: "s3cret"}, nil)
	require.NoError(t, err)

	return NewService(store, vaultStore, auth, testLogger()), sess, recordID
}

func TestService_IssueAndResolve(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, 1)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, key, 64) // 32 bytes hex encoded

	item, err := svc.Resolve(ctx, id, key)
	require.NoError(t, err)
	assert.Equal(t, vault.RecordTypePassword, item.Type)
	assert.Equal(t, "mail", item.Title)
	require.NotNil(t, item.Password)
	assert.Equal(t, "s3cret", item.Password.Secret)
}

func TestService_SingleViewTokenIsGoneAfterUse(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, 1)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, id, key)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, id, key)
	assert.ErrorIs(t, err, common.ErrShareNotFound)

	// both halves of the token are deleted, not just hidden
	_, err = svc.kv.Get(ctx, kv.ShareDataKey(id))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = svc.kv.Get(ctx, kv.ShareMetaKey(sess.Email, id))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestService_ViewLimitCountsDown(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, 3)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Resolve(ctx, id, key)
		require.NoError(t, err)
	}

	tokens, err := svc.List(ctx, sess)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, 2, tokens[0].CurrentViews)
	require.NotNil(t, tokens[0].LastAccessedAt)

	_, err = svc.Resolve(ctx, id, key)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, id, key)
	assert.ErrorIs(t, err, common.ErrShareNotFound)
}

func TestService_UnlimitedViews(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, UnlimitedViews)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		_, err := svc.Resolve(ctx, id, key)
		require.NoError(t, err)
	}

	tokens, err := svc.List(ctx, sess)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, 1000, tokens[0].CurrentViews)
}

func TestService_Expiry(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, UnlimitedViews)
	require.NoError(t, err)

	base := time.Now().UTC()
	svc.now = func() time.Time { return base.Add(2 * time.Hour) }

	_, err = svc.Resolve(ctx, id, key)
	assert.ErrorIs(t, err, common.ErrShareExpired)

	// the expired token was evicted, subsequent attempts see nothing
	_, err = svc.Resolve(ctx, id, key)
	assert.ErrorIs(t, err, common.ErrShareNotFound)
}

func TestService_WrongKeyDoesNotConsumeView(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, 1)
	require.NoError(t, err)

	wrong := make([]byte, len(key))
	for i := range wrong {
		wrong[i] = 'f'
	}
	_, err = svc.Resolve(ctx, id, string(wrong))
	assert.ErrorIs(t, err, common.ErrShareInvalidKey)

	_, err = svc.Resolve(ctx, id, "nothex")
	assert.ErrorIs(t, err, common.ErrShareInvalidKey)

	// failed attempts above did not burn the single view
	item, err := svc.Resolve(ctx, id, key)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", item.Password.Secret)
}

func TestService_ConcurrentResolveSingleView(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, 1)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Resolve(ctx, id, key)
		}(i)
	}
	wg.Wait()

	var ok, denied int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrShareNotFound) || errors.Is(err, common.ErrShareViewLimit):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, denied)
}

func TestService_ListEvictsDeadTokens(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }

	shortID, _, err := svc.Issue(ctx, sess, recordID, time.Minute, 1)
	require.NoError(t, err)
	longID, _, err := svc.Issue(ctx, sess, recordID, time.Hour, 1)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(10 * time.Minute) }

	tokens, err := svc.List(ctx, sess)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, longID, tokens[0].ID)

	_, err = svc.kv.Get(ctx, kv.ShareDataKey(shortID))
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = svc.kv.Get(ctx, kv.ShareMetaKey(sess.Email, shortID))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestService_Revoke(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	id, key, err := svc.Issue(ctx, sess, recordID, time.Hour, UnlimitedViews)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, sess, id))

	_, err = svc.Resolve(ctx, id, key)
	assert.ErrorIs(t, err, common.ErrShareNotFound)
	_, err = svc.kv.Get(ctx, kv.ShareDataKey(id))
	assert.ErrorIs(t, err, kv.ErrNotFound)

	// revoking again, or revoking an unknown id, is a no-op
	require.NoError(t, svc.Revoke(ctx, sess, id))
	require.NoError(t, svc.Revoke(ctx, sess, "no-such-token"))
}

func TestService_IssueValidation(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	tests := []struct {
		name     string
		recordID string
		ttl      time.Duration
		maxViews int
		wantErr  error
	}{
		{"zero ttl", recordID, 0, 1, common.ErrValidation},
		{"negative ttl", recordID, -time.Hour, 1, common.ErrValidation},
		{"zero views", recordID, time.Hour, 0, common.ErrValidation},
		{"negative views", recordID, time.Hour, -2, common.ErrValidation},
		{"missing record", "no-such-record", time.Hour, 1, common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Issue(ctx, sess, tt.recordID, tt.ttl, tt.maxViews)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_RejectsDeadSession(t *testing.T) {
	ctx := context.Background()
	svc, sess, recordID := newTestService(t)

	_, _, err := svc.Issue(ctx, nil, recordID, time.Hour, 1)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = svc.List(ctx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.ErrorIs(t, svc.Revoke(ctx, nil, "x"), common.ErrInvalidToken)

	svc.auth.Logout(sess)
	_, _, err = svc.Issue(ctx, sess, recordID, time.Hour, 1)
	assert.Error(t, err)
}

func TestService_SharedDocumentCarriesPayload(t *testing.T) {
	ctx := context.Background()
	svc, sess, _ := newTestService(t)

	raw := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}
	docID, err := svc.store.Create(ctx, sess, vault.DocumentEntry{Name: "a.pdf", MimeType: "application/pdf"}, raw)
	require.NoError(t, err)

	id, key, err := svc.Issue(ctx, sess, docID, time.Hour, 1)
	require.NoError(t, err)

	item, err := svc.Resolve(ctx, id, key)
	require.NoError(t, err)
	assert.Equal(t, vault.RecordTypeDocument, item.Type)
	require.NotNil(t, item.Document)
	assert.Equal(t, raw, item.Payload)
}

func TestShareURL(t *testing.T) {
	assert.Equal(t, "https://v.example.com/share/abc?key=dead", ShareURL("https://v.example.com", "abc", "dead"))
}
