package domain

import (
	"strings"
	"time"
)

// Kind names an entity type. It is also the id prefix and the table key.
type Kind string

// Entity kinds of the catalog.
const (
	KindLanguage        Kind = "language"
	KindSeries          Kind = "series"
	KindAuthor          Kind = "author"
	KindEbook           Kind = "ebook"
	KindGenre           Kind = "genre"
	KindFormat          Kind = "format"
	KindSource          Kind = "source"
	KindBookshelf       Kind = "bookshelf"
	KindBookshelfItem   Kind = "bookshelf_item"
	KindConversionBatch Kind = "conversion_batch"
	KindConversion      Kind = "conversion"
	KindEbookRating     Kind = "ebook_rating"
	KindSeriesRating    Kind = "series_rating"
)

// Entity carries the fields shared by every mutable catalog row.
// It gets embedded in each domain type.
type Entity struct {
	ID        string    `json:"id" validate:"-"`
	Version   int64     `json:"version" validate:"-"`  // Optimistic concurrency token, starts at 1
	Created   time.Time `json:"created" validate:"-"`  // Set once on insert
	Modified  time.Time `json:"modified" validate:"-"` // Set on every successful write
	CreatedBy string    `json:"created_by,omitempty" validate:"-"`
}

// Meta exposes the embedded Entity through a pointer to the outer type.
func (e *Entity) Meta() *Entity {
	return e
}

// Init prepares a new entity for its first insert.
func (e *Entity) Init(id, actor string, now time.Time) {
	e.ID = id
	e.Version = 1
	e.Created = now
	e.Modified = now
	e.CreatedBy = actor
}

// Record is satisfied by pointers to domain types embedding Entity.
type Record[T any] interface {
	*T
	Meta() *Entity
}

// Patch is a partial update for T. Nil fields leave values untouched.
type Patch[T any] interface {
	Apply(*T)
}

// Checker is implemented by entities with cross-field invariants that
// must hold before every write.
type Checker interface {
	Check() error
}

// optional normalizes an optional text value: blank clears it.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setOptional(dst **string, src *string) {
	if src != nil {
		*dst = optional(src)
	}
}
