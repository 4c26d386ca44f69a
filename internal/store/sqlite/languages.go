package sqlite

import (
	"context"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/store"
)

func newLanguages(s *Store) *Entity[domain.Language, *domain.Language] {
	return (&Entity[domain.Language, *domain.Language]{
		store:   s,
		kind:    domain.KindLanguage,
		table:   "languages",
		columns: []string{"code", "name"},
		values: func(l *domain.Language) []any {
			return []any{l.Code, l.Name}
		},
		fields: func(l *domain.Language) []any {
			return []any{&l.Code, &l.Name}
		},
		title: "name",
		// Ebooks index the language code.
		dependents: func(ctx context.Context, q querier, id string, at time.Time) ([]store.Change, error) {
			return ebookChanges(ctx, q, at, "language_id = ?", id)
		},
	}).build()
}
