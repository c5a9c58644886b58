package embedded

import (
	"context"
	"fmt"
	"maps"

	"github.com/kailas-cloud/articlesearch/internal/db"
)

// HSet merges fields into the hash at key and re-indexes it.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", key)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpHSet, Err: db.ErrClosed}
	}
	return s.setLocked(ctx, key, fields)
}

// HSetMulti stores multiple hashes; the first failure aborts the rest.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpHSet, Err: db.ErrClosed}
	}
	for _, item := range items {
		if len(item.Fields) == 0 {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: no fields", item.Key)}
		}
		if err := s.setLocked(ctx, item.Key, item.Fields); err != nil {
			return err
		}
	}
	return nil
}

// HGetAll returns a copy of the hash. A missing key yields db.ErrKeyNotFound.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpHGetAll, Err: db.ErrClosed}
	}
	m, ok := s.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return maps.Clone(m), nil
}

// Del removes a hash and its index entries. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	if err := s.unindexLocked(ctx, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	delete(s.hashes, key)
	return nil
}

func (s *Store) setLocked(ctx context.Context, key string, fields map[string]string) error {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	maps.Copy(h, fields)

	for _, idx := range s.indexes {
		if !idx.def.Covers(key) {
			continue
		}
		if err := idx.put(ctx, key, h); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", key, err)}
		}
	}
	return nil
}

func (s *Store) unindexLocked(ctx context.Context, key string) error {
	if _, ok := s.hashes[key]; !ok {
		return nil
	}
	for _, idx := range s.indexes {
		if !idx.def.Covers(key) {
			continue
		}
		if err := idx.remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
