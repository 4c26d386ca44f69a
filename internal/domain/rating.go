package domain

// EbookRating is one reader's rating of an ebook, from 0 to 10.
type EbookRating struct {
	Entity
	EbookID     string  `json:"ebook_id" validate:"required,ref=ebook"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=10"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// SeriesRating is one reader's rating of a series, from 0 to 10.
type SeriesRating struct {
	Entity
	SeriesID    string  `json:"series_id" validate:"required,ref=series"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=10"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// RatingPatch updates either kind of rating.
type RatingPatch struct {
	Rating      *float64 `json:"rating,omitempty" validate:"omitnil,gte=0,lte=10"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// EbookRatingPatch updates an EbookRating.
type EbookRatingPatch RatingPatch

// Apply implements Patch.
func (p EbookRatingPatch) Apply(r *EbookRating) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	setOptional(&r.Description, p.Description)
}

// SeriesRatingPatch updates a SeriesRating.
type SeriesRatingPatch RatingPatch

// Apply implements Patch.
func (p SeriesRatingPatch) Apply(r *SeriesRating) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	setOptional(&r.Description, p.Description)
}
