// Package kv defines the PersistentKV contract all Digivault state goes
// through: a flat key->bytes store with prefix enumeration and an atomic
// read-modify-write primitive. VaultStore and ShareService are clients of
// this interface and never know the backing medium (memory, PostgreSQL, S3).
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Update when the key is absent.
var ErrNotFound = errors.New("kv: key not found")

// ErrRemove may be returned by an UpdateFunc to delete the key as part of
// the same atomic step. Update then returns nil.
var ErrRemove = errors.New("kv: remove key")

// UpdateFunc receives the current value of a key and returns its
// replacement. Returning ErrRemove deletes the key; any other error aborts
// the update and is propagated unchanged.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the persistence collaborator.
//
// Update must behave as one atomic read-modify-write unit against the
// backing store: two concurrent Updates of the same key must serialize, and
// neither may observe a value the other is about to overwrite (no lost
// updates). This is the primitive the share resolve path relies on to keep
// a one-view token from being viewed twice.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ListKeys returns all keys starting with prefix, in unspecified order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Update atomically applies fn to the current value of key.
	// Returns ErrNotFound if the key is absent.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
