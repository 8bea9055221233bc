// Package keymanager owns the credentials side of the vault: the owner
// registry (register/login), deterministic master-key derivation, and
// session issuance. The master key exists only inside a Session and is
// wiped on logout; it is never written to durable storage.
package keymanager

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/digivault/digivault/internal/common"
	"github.com/digivault/digivault/internal/cryptox"
	"github.com/digivault/digivault/internal/kv"
)

// MinPasswordLength matches the registration form's original constraint.
const MinPasswordLength = 8

// Owner is the registry record persisted per account. Note there is no key
// material here: PasswordHash is a one-way login check, and the master key
// is re-derived from the password at every login.
type Owner struct {
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Manager verifies owner credentials against the registry and mints
// sessions. The JWT signing secret is random per process, so a session
// token can never outlive the process that issued it.
type Manager struct {
	store      kv.Store
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewManager(store kv.Store, sessionTTL time.Duration) *Manager {
	return &Manager{
		store:      store,
		jwtSecret:  common.GenerateRandByteArray(32),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// DeriveKey derives the master key for the given credentials. Same
// password+email always yields the same key.
func DeriveKey(password []byte, email string) []byte {
	return cryptox.DeriveMasterKey(password, email)
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, "/ ") {
		return fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return nil
}

// Register creates a new owner with an empty record collection. The stored
// hash is one-way and never derivable back to the master key.
func (m *Manager) Register(ctx context.Context, email string, password []byte) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	email = strings.ToLower(email)
	if _, err := m.store.Get(ctx, kv.OwnerKey(email)); err == nil {
		return common.ErrAlreadyExists
	} else if !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("owner lookup error: %w", err)
	}

	owner := &Owner{
		Email:        email,
		PasswordHash: cryptox.HashPassword(password),
		CreatedAt:    m.now().UTC(),
	}
	data, err := json.Marshal(owner)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, kv.OwnerKey(email), data); err != nil {
		return fmt.Errorf("owner save error: %w", err)
	}
	return nil
}

// Login verifies the credentials and, on success, derives the master key
// and returns a live Session with a signed session token. Absent owner and
// wrong password both come back as ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	email = strings.ToLower(email)

	data, err := m.store.Get(ctx, kv.OwnerKey(email))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("owner lookup error: %w", err)
	}

	var owner Owner
	if err := json.Unmarshal(data, &owner); err != nil {
		return nil, fmt.Errorf("owner decode error: %w", err)
	}

	candidate := cryptox.HashPassword(password)
	if subtle.ConstantTimeCompare(owner.PasswordHash, candidate) == 0 {
		return nil, common.ErrInvalidCredentials
	}

	token, err := m.generateToken(email)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	return &Session{
		Email:     email,
		MasterKey: DeriveKey(password, email),
		Token:     token,
	}, nil
}

// Logout wipes the session's key material. After this call nothing is
// recoverable from the session except by re-authenticating.
func (m *Manager) Logout(s *Session) {
	if s == nil {
		return
	}
	common.WipeByteArray(s.MasterKey)
	s.MasterKey = nil
	s.Token = ""
}
