package article

import (
	"errors"
	"strings"
)

// Article is the article aggregate (immutable value object).
type Article struct {
	id            string
	title         string
	content       string
	author        string
	publishedDate string
	vector        []float32
}

// New validates and creates an Article that has not been stored yet.
// Title and content are required; author and published date are optional.
func New(title, content, author, publishedDate string) (Article, error) {
	if strings.TrimSpace(title) == "" {
		return Article{}, errors.New("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return Article{}, errors.New("content is required")
	}
	return Article{
		title:         title,
		content:       content,
		author:        author,
		publishedDate: publishedDate,
	}, nil
}

// Reconstruct creates an Article without validation (storage hydration).
func Reconstruct(id, title, content, author, publishedDate string, vector []float32) Article {
	return Article{
		id:            id,
		title:         title,
		content:       content,
		author:        author,
		publishedDate: publishedDate,
		vector:        vector,
	}
}

// ID returns the store-assigned identifier; empty until stored.
func (a Article) ID() string { return a.id }

// Title returns the article title.
func (a Article) Title() string { return a.title }

// Content returns the article body.
func (a Article) Content() string { return a.content }

// Author returns the author, or "" when unknown.
func (a Article) Author() string { return a.author }

// PublishedDate returns the publication date as given by the source, or "".
func (a Article) PublishedDate() string { return a.publishedDate }

// Vector returns the embedding vector.
func (a Article) Vector() []float32 { return a.vector }

// EmbeddingText is the text the article embedding is computed from.
func (a Article) EmbeddingText() string { return a.title + " " + a.content }

// WithVector returns a copy carrying the embedding.
func (a Article) WithVector(v []float32) Article {
	a.vector = v
	return a
}
