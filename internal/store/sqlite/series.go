package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/store"
)

const (
	seriesRatingAvg   = "(SELECT AVG(r.rating) FROM series_ratings r WHERE r.series_id = t.id)"
	seriesRatingCount = "(SELECT COUNT(*) FROM series_ratings r WHERE r.series_id = t.id)"
)

func newSeries(s *Store) *Entity[domain.Series, *domain.Series] {
	return (&Entity[domain.Series, *domain.Series]{
		store:   s,
		kind:    domain.KindSeries,
		table:   "series",
		columns: []string{"title", "description"},
		derived: []string{seriesRatingAvg, seriesRatingCount},
		values: func(v *domain.Series) []any {
			return []any{v.Title, v.Description}
		},
		fields: func(v *domain.Series) []any {
			return []any{&v.Title, &v.Description, &v.Rating, &v.RatingCount}
		},
		title:  "title",
		rating: seriesRatingAvg,
		dependents: func(ctx context.Context, q querier, id string, at time.Time) ([]store.Change, error) {
			return ebookChanges(ctx, q, at, "series_id = ?", id)
		},
		beforeDelete: detachSeries,
	}).build()
}

// detachSeries clears series_id and series_index together on every ebook
// of the series. The ebooks change, so their versions move.
func detachSeries(ctx context.Context, tx *sql.Tx, id string, at time.Time) ([]store.Change, error) {
	changes, err := ebookChanges(ctx, tx, at, "series_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ebooks SET series_id = NULL, series_index = NULL, modified = ?, version = version + 1
		 WHERE series_id = ?`, formatTime(at), id)
	if err != nil {
		return nil, classify(ctx, err, "detach ebooks from series")
	}
	for i := range changes {
		changes[i].Version++
	}
	return changes, nil
}
