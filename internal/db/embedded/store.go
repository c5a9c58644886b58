// Package embedded is an in-process db.Store: hashes live in memory, chromem-go
// serves vector queries and bleve serves full-text and match-all queries.
// It mirrors the Redis HASH + FT.* contract closely enough to run the service
// without an external database.
package embedded

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	chromem "github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/articlesearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store implements db.Store in memory.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string]map[string]string
	indexes map[string]*index
	vectors *chromem.DB
	closed  bool
}

// index couples a schema with its text and vector backends.
type index struct {
	def       db.IndexDefinition
	text      bleve.Index
	vecs      *chromem.Collection // nil when the schema has no vector field
	vecField  db.IndexField
	textNames map[string]bool // TEXT fields addressable by SearchText
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]*index),
		vectors: chromem.NewDB(),
	}
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return db.ErrClosed
	}
	return nil
}

// WaitForReady returns immediately; an in-process store is ready once created.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close releases all indexes.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, idx := range s.indexes {
		_ = idx.text.Close()
		delete(s.indexes, name)
	}
	s.closed = true
}

func (s *Store) lookup(name string) (*index, error) {
	if s.closed {
		return nil, db.ErrClosed
	}
	idx, ok := s.indexes[name]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	return idx, nil
}

func (s *Store) hashCopy(key string) map[string]string {
	return maps.Clone(s.hashes[key])
}
