package domain

import (
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
)

// Ebook is the central catalog entry. BaseDir is derived on create from the
// title, authors, language and series and never changes afterwards.
type Ebook struct {
	Entity
	Title       string  `json:"title" validate:"notblank,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=100000"` // May contain HTML
	Cover       *string `json:"cover,omitempty" validate:"omitempty,max=511"`
	BaseDir     string  `json:"base_dir" validate:"-"`
	LanguageID  string  `json:"language_id" validate:"required,ref=language"`
	SeriesID    *string `json:"series_id,omitempty" validate:"omitempty,ref=series"`
	SeriesIndex *int64  `json:"series_index,omitempty" validate:"omitempty,gte=0"`

	// Authors and Genres are read from the join tables. On create they may
	// carry the initial associations; only IDs are used.
	Authors []AuthorRef `json:"authors,omitempty" validate:"omitempty,dive"`
	Genres  []GenreRef  `json:"genres,omitempty" validate:"omitempty,dive"`

	// Resolved when read.
	LanguageCode string   `json:"language_code,omitempty" validate:"-"`
	SeriesTitle  *string  `json:"series_title,omitempty" validate:"-"`
	Rating       *float64 `json:"rating,omitempty" validate:"-"`
	RatingCount  int64    `json:"rating_count" validate:"-"`
}

// Check enforces that series and index are set together.
func (e *Ebook) Check() error {
	if (e.SeriesID == nil) != (e.SeriesIndex == nil) {
		return domainerrors.Validation("series_id and series_index must be set together")
	}
	if dup := firstDuplicate(AuthorIDs(e.Authors)); dup != "" {
		return domainerrors.Validationf("author %s listed twice", dup)
	}
	if dup := firstDuplicate(GenreIDs(e.Genres)); dup != "" {
		return domainerrors.Validationf("genre %s listed twice", dup)
	}
	return nil
}

// AuthorIDs returns the ids of refs in order.
func AuthorIDs(refs []AuthorRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

// GenreIDs returns the ids of refs in order.
func GenreIDs(refs []GenreRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}

// EbookPatch updates an Ebook. An empty SeriesID removes the ebook from its
// series and clears the index with it.
type EbookPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,notblank,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=100000"`
	Cover       *string `json:"cover,omitempty" validate:"omitempty,max=511"`
	LanguageID  *string `json:"language_id,omitempty" validate:"omitnil,ref=language"`
	SeriesID    *string `json:"series_id,omitempty" validate:"omitempty,ref=series"`
	SeriesIndex *int64  `json:"series_index,omitempty" validate:"omitnil,gte=0"`
}

// Apply implements Patch.
func (p EbookPatch) Apply(e *Ebook) {
	setString(&e.Title, p.Title)
	setOptional(&e.Description, p.Description)
	setOptional(&e.Cover, p.Cover)
	setString(&e.LanguageID, p.LanguageID)
	if p.SeriesID != nil {
		e.SeriesID = optional(p.SeriesID)
		if e.SeriesID == nil {
			e.SeriesIndex = nil
		}
	}
	if p.SeriesIndex != nil {
		idx := *p.SeriesIndex
		e.SeriesIndex = &idx
	}
}
