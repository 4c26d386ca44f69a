// Package search provides the full-text projection of the catalog using Bleve.
// Ebooks, authors and series are indexed into one index with a kind
// discriminator; every document is derived from store state only, so the
// same entity always produces the same document.
package search

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/mybookshelf/catalog/internal/domain"
)

// Indexed kinds. Everything else never reaches the index.
var indexedKinds = map[domain.Kind]bool{
	domain.KindEbook:  true,
	domain.KindAuthor: true,
	domain.KindSeries: true,
}

// Indexed reports whether documents of kind live in the index.
func Indexed(kind domain.Kind) bool {
	return indexedKinds[kind]
}

// Document is the unified document structure for the Bleve index.
//
// Author, genre, series and language names are denormalized into ebook
// documents, which is why renaming any of them reindexes the ebooks.
type Document struct {
	ID   string      `json:"id"`
	Kind domain.Kind `json:"kind"`

	// Ebook: title, Author: "First Last", Series: title
	Title       string `json:"title"`
	Description string `json:"description,omitempty"` // Plain text

	// Ebook-only fields
	Authors     []string `json:"authors,omitempty"`
	Genres      []string `json:"genres,omitempty"` // Lowercased, filter only
	Series      string   `json:"series,omitempty"`
	Language    string   `json:"language,omitempty"`
	SeriesIndex *int64   `json:"series_index,omitempty"`

	Version  int64 `json:"version"`
	Created  int64 `json:"created"`  // Unix millis
	Modified int64 `json:"modified"` // Unix millis
}

// ToMap converts the document to a map with the field names of the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"kind":     string(d.Kind),
		"title":    d.Title,
		"version":  d.Version,
		"created":  d.Created,
		"modified": d.Modified,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Authors) > 0 {
		m["authors"] = d.Authors
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if d.Series != "" {
		m["series"] = d.Series
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if d.SeriesIndex != nil {
		m["series_index"] = *d.SeriesIndex
	}

	return m
}

// EbookDocument derives the document of an ebook read from the store
// with its authors, genres, language and series resolved.
func EbookDocument(e *domain.Ebook) *Document {
	doc := &Document{
		ID:          e.ID,
		Kind:        domain.KindEbook,
		Title:       e.Title,
		Description: descriptionText(e.Description),
		Language:    e.LanguageCode,
		Version:     e.Version,
		Created:     e.Created.UnixMilli(),
		Modified:    e.Modified.UnixMilli(),
	}
	for _, a := range e.Authors {
		doc.Authors = append(doc.Authors, a.Name())
	}
	for _, g := range e.Genres {
		doc.Genres = append(doc.Genres, strings.ToLower(g.Name))
	}
	if e.SeriesTitle != nil {
		doc.Series = *e.SeriesTitle
		if e.SeriesIndex != nil {
			idx := *e.SeriesIndex
			doc.SeriesIndex = &idx
		}
	}
	return doc
}

// AuthorDocument derives the document of an author.
func AuthorDocument(a *domain.Author) *Document {
	return &Document{
		ID:          a.ID,
		Kind:        domain.KindAuthor,
		Title:       a.Name(),
		Description: descriptionText(a.Description),
		Version:     a.Version,
		Created:     a.Created.UnixMilli(),
		Modified:    a.Modified.UnixMilli(),
	}
}

// SeriesDocument derives the document of a series.
func SeriesDocument(s *domain.Series) *Document {
	return &Document{
		ID:          s.ID,
		Kind:        domain.KindSeries,
		Title:       s.Title,
		Description: descriptionText(s.Description),
		Version:     s.Version,
		Created:     s.Created.UnixMilli(),
		Modified:    s.Modified.UnixMilli(),
	}
}

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// markdownMarks matches the emphasis, heading and quote markers the
// converter leaves behind.
var markdownMarks = regexp.MustCompile(`(?m)^\s*(#{1,6}|>|[-*+])\s+|[*_]{1,3}|\[|\]\([^)]*\)`)

// descriptionText turns a possibly-HTML description into plain text.
func descriptionText(s *string) string {
	if s == nil {
		return ""
	}
	text := strings.TrimSpace(*s)
	if text == "" || !htmlTagPattern.MatchString(strings.ToLower(text)) {
		return text
	}

	markdown, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(markdownMarks.ReplaceAllString(markdown, ""))
}
