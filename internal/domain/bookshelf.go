package domain

import (
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
)

// Bookshelf is a user-curated list of ebooks and series.
type Bookshelf struct {
	Entity
	Name        string   `json:"name" validate:"notblank,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
	Public      bool     `json:"public"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitnil,gte=0,lte=10"`
}

// BookshelfPatch updates a Bookshelf.
type BookshelfPatch struct {
	Name        *string  `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
	Public      *bool    `json:"public,omitempty"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitnil,gte=0,lte=10"`
}

// Apply implements Patch.
func (p BookshelfPatch) Apply(b *Bookshelf) {
	setString(&b.Name, p.Name)
	setOptional(&b.Description, p.Description)
	if p.Public != nil {
		b.Public = *p.Public
	}
	if p.Rating != nil {
		r := *p.Rating
		b.Rating = &r
	}
}

// ItemType says what a bookshelf item points at.
type ItemType string

// Bookshelf item types.
const (
	ItemEbook  ItemType = "EBOOK"
	ItemSeries ItemType = "SERIES"
)

// BookshelfItem places exactly one ebook or one series on a bookshelf.
// Items are added and removed through the bookshelf so its version moves.
type BookshelfItem struct {
	Entity
	BookshelfID string   `json:"bookshelf_id" validate:"-"`
	Type        ItemType `json:"type" validate:"required,oneof=EBOOK SERIES"`
	EbookID     *string  `json:"ebook_id,omitempty" validate:"omitempty,ref=ebook"`
	SeriesID    *string  `json:"series_id,omitempty" validate:"omitempty,ref=series"`
	Order       int64    `json:"order" validate:"gte=0"` // 0 on add means append
	Note        *string  `json:"note,omitempty" validate:"omitempty,max=10000"`
}

// Check enforces that exactly one target is set and matches Type.
func (i *BookshelfItem) Check() error {
	switch {
	case (i.EbookID == nil) == (i.SeriesID == nil):
		return domainerrors.Validation("bookshelf item needs exactly one of ebook_id or series_id")
	case i.Type == ItemEbook && i.EbookID == nil, i.Type == ItemSeries && i.SeriesID == nil:
		return domainerrors.Validationf("bookshelf item of type %s has no matching target", i.Type)
	}
	return nil
}

// Target returns the kind and id the item points at.
func (i *BookshelfItem) Target() (Kind, string) {
	if i.EbookID != nil {
		return KindEbook, *i.EbookID
	}
	if i.SeriesID != nil {
		return KindSeries, *i.SeriesID
	}
	return "", ""
}

// BookshelfItemPatch updates an item's position or note.
type BookshelfItemPatch struct {
	Order *int64  `json:"order,omitempty" validate:"omitnil,gte=0"`
	Note  *string `json:"note,omitempty" validate:"omitempty,max=10000"`
}

// Apply implements Patch.
func (p BookshelfItemPatch) Apply(i *BookshelfItem) {
	if p.Order != nil {
		i.Order = *p.Order
	}
	setOptional(&i.Note, p.Note)
}
