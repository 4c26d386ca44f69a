package sqlite

import (
	"context"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/store"
)

func newGenres(s *Store) *Entity[domain.Genre, *domain.Genre] {
	return (&Entity[domain.Genre, *domain.Genre]{
		store:   s,
		kind:    domain.KindGenre,
		table:   "genres",
		columns: []string{"name"},
		values: func(g *domain.Genre) []any {
			return []any{g.Name}
		},
		fields: func(g *domain.Genre) []any {
			return []any{&g.Name}
		},
		title: "name",
		dependents: func(ctx context.Context, q querier, id string, at time.Time) ([]store.Change, error) {
			return ebookChanges(ctx, q, at, "id IN (SELECT ebook_id FROM ebook_genres WHERE genre_id = ?)", id)
		},
	}).build()
}
