package sqlite

import (
	"context"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/store"
)

func newAuthors(s *Store) *Entity[domain.Author, *domain.Author] {
	return (&Entity[domain.Author, *domain.Author]{
		store:   s,
		kind:    domain.KindAuthor,
		table:   "authors",
		columns: []string{"last_name", "first_name", "description"},
		values: func(a *domain.Author) []any {
			return []any{a.LastName, a.FirstName, a.Description}
		},
		fields: func(a *domain.Author) []any {
			return []any{&a.LastName, &a.FirstName, &a.Description}
		},
		title: "last_name",
		// Ebook documents embed author names. For deletes the ids are
		// collected before the join rows cascade away.
		dependents: func(ctx context.Context, q querier, id string, at time.Time) ([]store.Change, error) {
			return ebookChanges(ctx, q, at, "id IN (SELECT ebook_id FROM ebook_authors WHERE author_id = ?)", id)
		},
	}).build()
}
