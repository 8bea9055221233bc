// Package vault implements the encrypted-at-rest record collection of one
// owner: the tagged-union record model, the encrypt-on-write store, and the
// self-destruct policy for one-time-view notes.
package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/digivault/digivault/internal/common"
)

// RecordType classifies a vault record kind.
type RecordType string

const (
	RecordTypePassword RecordType = "password"
	RecordTypeNote     RecordType = "note"
	RecordTypeDocument RecordType = "document"
)

// TypedEntry is implemented by every record payload variant.
type TypedEntry interface {
	GetType() RecordType
	GetTitle() string
}

// PasswordEntry stores credentials for one site or service.
type PasswordEntry struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
	Website  string `json:"website"`
	Notes    string `json:"notes"`
}

func (x PasswordEntry) GetType() RecordType { return RecordTypePassword }
func (x PasswordEntry) GetTitle() string    { return x.Title }

// NoteEntry stores free-form text. A destructible note is deleted after its
// single viewing session ends; HasBeenViewed tracks the first view.
type NoteEntry struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Destructible  bool   `json:"destructible"`
	HasBeenViewed bool   `json:"has_been_viewed"`
}

func (x NoteEntry) GetType() RecordType { return RecordTypeNote }
func (x NoteEntry) GetTitle() string    { return x.Title }

// DocumentEntry describes an uploaded file. The file bytes themselves are
// sealed separately as a raw blob; SizeBytes always reflects plaintext size.
type DocumentEntry struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

func (x DocumentEntry) GetType() RecordType { return RecordTypeDocument }
func (x DocumentEntry) GetTitle() string    { return x.Name }

// Envelope is the tagged union over the payload variants. A single lookup
// keyed by id plus the explicit Type tag replaces any guessing about which
// collection a record lives in.
type Envelope struct {
	Type    RecordType      `json:"type"`
	Title   string          `json:"title"`
	Details json.RawMessage `json:"details"`
}

// Wrap builds an Envelope from a typed payload.
func Wrap(v TypedEntry) (Envelope, error) {
	switch v.GetType() {
	case RecordTypePassword, RecordTypeNote, RecordTypeDocument:
	default:
		return Envelope{}, fmt.Errorf("%w: unsupported record type %q", common.ErrValidation, v.GetType())
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: v.GetType(), Title: v.GetTitle(), Details: b}, nil
}

// Unwrap decodes the Details into the variant named by Type.
func (e Envelope) Unwrap() (TypedEntry, error) {
	switch e.Type {
	case RecordTypePassword:
		var v PasswordEntry
		return v, json.Unmarshal(e.Details, &v)
	case RecordTypeNote:
		var v NoteEntry
		return v, json.Unmarshal(e.Details, &v)
	case RecordTypeDocument:
		var v DocumentEntry
		return v, json.Unmarshal(e.Details, &v)
	default:
		return nil, fmt.Errorf("%w: unsupported record type %q", common.ErrValidation, e.Type)
	}
}

// Record is the persisted, encrypted form of a vault record. Ciphertext
// seals the envelope JSON; Blob seals raw document bytes without any
// re-encoding. Everything marked secret in the data model lives inside one
// of the two ciphertexts.
type Record struct {
	ID         string     `json:"id"`
	Type       RecordType `json:"type"`
	CreatedAt  time.Time  `json:"created_at"`
	Nonce      []byte     `json:"nonce"`
	Ciphertext []byte     `json:"ciphertext"`
	BlobNonce  []byte     `json:"blob_nonce,omitempty"`
	Blob       []byte     `json:"blob,omitempty"`
}

// Item is a decrypted record as handed to display code or to the share
// service. Payload holds plaintext document bytes and is nil for other
// record types.
type Item struct {
	ID        string
	CreatedAt time.Time
	Envelope  Envelope
	Payload   []byte
}
