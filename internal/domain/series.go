package domain

// Series is an ordered sequence of ebooks. Rating and RatingCount are
// aggregated from SeriesRating rows when read.
type Series struct {
	Entity
	Title       string  `json:"title" validate:"notblank,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`

	Rating      *float64 `json:"rating,omitempty" validate:"-"`
	RatingCount int64    `json:"rating_count" validate:"-"`
}

// SeriesPatch updates a Series.
type SeriesPatch struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,notblank,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// Apply implements Patch.
func (p SeriesPatch) Apply(s *Series) {
	setString(&s.Title, p.Title)
	setOptional(&s.Description, p.Description)
}
