package sqlite

import "github.com/mybookshelf/catalog/internal/domain"

func newEbookRatings(s *Store) *Entity[domain.EbookRating, *domain.EbookRating] {
	return (&Entity[domain.EbookRating, *domain.EbookRating]{
		store:   s,
		kind:    domain.KindEbookRating,
		table:   "ebook_ratings",
		columns: []string{"ebook_id", "rating", "description"},
		values: func(r *domain.EbookRating) []any {
			return []any{r.EbookID, r.Rating, r.Description}
		},
		fields: func(r *domain.EbookRating) []any {
			return []any{&r.EbookID, &r.Rating, &r.Description}
		},
		filters: map[string]string{
			"ebook_id":   "t.ebook_id = ?",
			"created_by": "t.created_by = ?",
		},
		rating: "t.rating",
	}).build()
}

func newSeriesRatings(s *Store) *Entity[domain.SeriesRating, *domain.SeriesRating] {
	return (&Entity[domain.SeriesRating, *domain.SeriesRating]{
		store:   s,
		kind:    domain.KindSeriesRating,
		table:   "series_ratings",
		columns: []string{"series_id", "rating", "description"},
		values: func(r *domain.SeriesRating) []any {
			return []any{r.SeriesID, r.Rating, r.Description}
		},
		fields: func(r *domain.SeriesRating) []any {
			return []any{&r.SeriesID, &r.Rating, &r.Description}
		},
		filters: map[string]string{
			"series_id":  "t.series_id = ?",
			"created_by": "t.created_by = ?",
		},
		rating: "t.rating",
	}).build()
}
