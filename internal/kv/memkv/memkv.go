// Package memkv provides an in-memory kv.Store. It is the test double for
// the durable backends and a usable backend for throwaway sessions.
package memkv

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/digivault/digivault/internal/kv"
)

// Store keeps all pairs in a map guarded by a mutex. Update holds the lock
// for the whole read-modify-write, which makes it trivially atomic.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0)
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data[key]
	if !ok {
		return kv.ErrNotFound
	}
	snapshot := make([]byte, len(cur))
	copy(snapshot, cur)

	next, err := fn(snapshot)
	if err != nil {
		if err == kv.ErrRemove {
			delete(s.data, key)
			return nil
		}
		return err
	}
	s.data[key] = next
	return nil
}
