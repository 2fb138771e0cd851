package manifest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/npmmeta/pkg/cache"
)

// Store persists entries keyed by package name on top of a byte cache.
// Retention is the physical lifetime handed to the backend; whether a stored
// entry is still fresh is decided by the caller from its LastSynced.
type Store struct {
	cache     cache.Cache
	retention time.Duration
}

// NewStore creates a store over c. A nil cache stores nothing.
func NewStore(c cache.Cache, retention time.Duration) *Store {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Store{cache: c, retention: retention}
}

// Get returns the entry for name. Entries that cannot be decoded are
// reported as errors so the caller can log and discard them.
func (s *Store) Get(ctx context.Context, name string) (Entry, bool, error) {
	data, ok, err := s.cache.Get(ctx, name)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Set stores e under name.
func (s *Store) Set(ctx context.Context, name string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, name, data, s.retention)
}

// Delete removes the entry for name.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.cache.Delete(ctx, name)
}

// Close closes the underlying cache.
func (s *Store) Close() error {
	return s.cache.Close()
}
