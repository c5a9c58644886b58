package embedded

import (
	"context"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	chromem "github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/articlesearch/internal/db"
)

// CreateIndex builds the index and backfills every existing hash under its prefixes,
// as FT.CREATE does.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if def == nil {
		return errors.New("index definition is required")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpCreateIndex, Err: db.ErrClosed}
	}
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}

	idx, err := s.newIndex(def)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	for key, h := range s.hashes {
		if !idx.def.Covers(key) {
			continue
		}
		if err := idx.put(ctx, key, h); err != nil {
			idx.close(s.vectors)
			return &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("backfill %s: %w", key, err)}
		}
	}

	s.indexes[def.Name] = idx
	return nil
}

// DropIndex removes the index. With deleteDocs the covered hashes are removed too.
func (s *Store) DropIndex(_ context.Context, name string, deleteDocs bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookup(name)
	if err != nil {
		return err
	}
	delete(s.indexes, name)
	idx.close(s.vectors)

	if deleteDocs {
		for key := range s.hashes {
			if idx.def.Covers(key) {
				delete(s.hashes, key)
			}
		}
	}
	return nil
}

// IndexExists reports whether an index with the given name is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, &db.Error{Op: db.OpIndexInfo, Err: db.ErrClosed}
	}
	_, ok := s.indexes[name]
	return ok, nil
}

func (s *Store) newIndex(def *db.IndexDefinition) (*index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false

	idx := &index{def: *def, textNames: make(map[string]bool)}
	for _, f := range def.Fields {
		switch f.Type {
		case db.IndexFieldText:
			fm := bleve.NewTextFieldMapping()
			fm.Analyzer = standard.Name
			docMapping.AddFieldMappingsAt(f.QueryName(), fm)
			idx.textNames[f.QueryName()] = true
		case db.IndexFieldTag:
			docMapping.AddFieldMappingsAt(f.QueryName(), bleve.NewKeywordFieldMapping())
		case db.IndexFieldVector:
			idx.vecField = f
		}
	}
	im.DefaultMapping = docMapping

	text, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create text index: %w", err)
	}
	idx.text = text

	if idx.vecField.VectorDim > 0 {
		// Embeddings are always supplied by the caller; the collection never embeds on its own.
		vecs, err := s.vectors.CreateCollection(def.Name, nil, nil)
		if err != nil {
			_ = text.Close()
			return nil, fmt.Errorf("create vector collection: %w", err)
		}
		idx.vecs = vecs
	}
	return idx, nil
}

// put (re)indexes one hash.
func (idx *index) put(ctx context.Context, key string, h map[string]string) error {
	doc := make(map[string]any, len(idx.def.Fields))
	for _, f := range idx.def.Fields {
		if f.Type == db.IndexFieldVector {
			continue
		}
		if v, ok := h[f.Name]; ok {
			doc[f.QueryName()] = v
		}
	}
	if err := idx.text.Index(key, doc); err != nil {
		return fmt.Errorf("text index: %w", err)
	}

	if idx.vecs == nil {
		return nil
	}
	vec := db.DecodeVector(h[idx.vecField.Name])
	if len(vec) != idx.vecField.VectorDim || isZero(vec) {
		// Like FT indexes, hashes with an unusable vector stay out of KNN results.
		return idx.vecs.Delete(ctx, nil, nil, key)
	}
	if err := idx.vecs.AddDocument(ctx, chromem.Document{ID: key, Embedding: vec}); err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	return nil
}

func (idx *index) remove(ctx context.Context, key string) error {
	if err := idx.text.Delete(key); err != nil {
		return fmt.Errorf("text index: %w", err)
	}
	if idx.vecs != nil {
		if err := idx.vecs.Delete(ctx, nil, nil, key); err != nil {
			return fmt.Errorf("vector index: %w", err)
		}
	}
	return nil
}

func (idx *index) close(vectors *chromem.DB) {
	_ = idx.text.Close()
	if idx.vecs != nil {
		_ = vectors.DeleteCollection(idx.def.Name)
	}
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
