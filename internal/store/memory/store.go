package memory

import (
	"context"
	"sort"

	gocache "github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/tokendock/internal/store"
)

// Store keeps blobs in process memory. Nothing expires.
type Store struct{ c *gocache.Cache }

var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

// New creates an empty memory store.
func New() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 0)}
}

func (s *Store) Name() string { return store.DriverMemory }

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	b, _ := v.([]byte)
	return append([]byte(nil), b...), nil
}

func (s *Store) Set(_ context.Context, key string, data []byte) error {
	s.c.Set(key, append([]byte(nil), data...), gocache.NoExpiration)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len returns the number of stored keys.
func (s *Store) Len() int { return s.c.ItemCount() }

// Keys returns the stored keys in lexical order.
func (s *Store) Keys(context.Context) ([]string, error) {
	items := s.c.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
