package keymanager

import (
	"github.com/digivault/digivault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the explicit per-login state object passed into every
// VaultStore and ShareService call. It is constructed once at login and
// dropped at logout; there is no ambient "current user".
type Session struct {
	Email     string
	MasterKey []byte
	Token     string
}

// Claims carries the owner email on top of the registered JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Email string
}

func (m *Manager) generateToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(m.now().Add(m.sessionTTL)),
		},
		Email: email,
	})
	return token.SignedString(m.jwtSecret)
}

// VerifySession checks that the session carries a valid, unexpired token
// issued by this process for the session's own email, and that key
// material is still present. Returns ErrInvalidToken otherwise.
func (m *Manager) VerifySession(s *Session) error {
	if s == nil || len(s.MasterKey) == 0 || s.Token == "" {
		return common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(s.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return common.ErrInvalidToken
	}
	if claims.Email != s.Email {
		return common.ErrInvalidToken
	}
	return nil
}
