// Package cryptox implements the encryption-at-rest primitives of Digivault:
// deterministic master-key derivation from owner credentials, a one-way
// password hash for the owner registry, and AES-GCM sealing of record
// payloads with a fresh random nonce per call.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/digivault/digivault/internal/common"
	"golang.org/x/crypto/argon2"
)

// kdfDomain separates the master-key salt space from any other use of the
// owner's email. Changing it invalidates every existing vault.
const kdfDomain = "digivault/v1|"

// DeriveMasterKey derives the owner's 32-byte master key from the password
// and email. The function is deterministic: the same password+email pair
// always yields the same key, which is what lets an owner re-derive the key
// on every session without it ever being stored.
//
// The salt is an email-derived constant rather than a random per-user value.
// A random persisted salt would be stronger against precomputation but would
// break the re-derivability contract above.
func DeriveMasterKey(password []byte, email string) []byte {
	salt := sha256.Sum256([]byte(kdfDomain + strings.ToLower(email)))
	return argon2.IDKey(password, salt[:], 1, 64*1024, 4, 32)
}

// HashPassword returns the one-way hash stored in the owner registry for
// login checks. It is deliberately distinct from DeriveMasterKey: knowing
// the stored hash must not yield the master key.
func HashPassword(password []byte) []byte {
	h := sha256.Sum256(password)
	return h[:]
}

// EncryptEntry serializes v to JSON and encrypts it using AES-GCM under key.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A new random
// 12-byte nonce is generated for each call, so encrypting the same plaintext
// twice never produces the same ciphertext. Ciphertext and nonce are
// returned separately.
func EncryptEntry(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return EncryptBytes(plaintext, key)
}

// DecryptEntry decrypts ciphertext produced by EncryptEntry and unmarshals
// the resulting JSON into v. A wrong key, a wrong nonce, or tampered
// ciphertext yields common.ErrDecrypt; partial plaintext is never exposed.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	plaintext, err := DecryptBytes(ciphertext, nonce, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecrypt, err)
	}
	return nil
}

// EncryptBytes encrypts raw bytes under key with AES-GCM and a fresh random
// nonce. Used for document payloads, which are sealed as-is rather than
// JSON re-encoded.
func EncryptBytes(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// DecryptBytes reverses EncryptBytes. Authentication failure is reported as
// common.ErrDecrypt.
func DecryptBytes(ciphertext, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecrypt, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
