// Package seed reads the article corpus indexed at startup.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
)

// Record is one raw article as stored in the seed file.
type Record struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// LoadFile reads a JSON array of records from path.
func LoadFile(path string) ([]domart.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	articles, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return articles, nil
}

// Parse decodes a JSON array of records. A record without title or content is
// rejected with its position; unknown fields are ignored.
func Parse(r io.Reader) ([]domart.Article, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	articles := make([]domart.Article, 0, len(records))
	for i, rec := range records {
		a, err := domart.New(rec.Title, rec.Content, rec.Author, rec.PublishedDate)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		articles = append(articles, a)
	}
	return articles, nil
}
