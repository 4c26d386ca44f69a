package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/id"
	"github.com/mybookshelf/catalog/internal/store"
)

func newBookshelves(s *Store) *Entity[domain.Bookshelf, *domain.Bookshelf] {
	return (&Entity[domain.Bookshelf, *domain.Bookshelf]{
		store:   s,
		kind:    domain.KindBookshelf,
		table:   "bookshelves",
		columns: []string{"name", "description", "public", "rating"},
		values: func(b *domain.Bookshelf) []any {
			return []any{b.Name, b.Description, b.Public, b.Rating}
		},
		fields: func(b *domain.Bookshelf) []any {
			return []any{&b.Name, &b.Description, &b.Public, &b.Rating}
		},
		filters: map[string]string{
			"created_by": "t.created_by = ?",
			"public":     "t.public = ?",
		},
		convert: map[string]func(string) (any, error){
			"public": boolArg,
		},
		title:  "name",
		rating: "t.rating",
	}).build()
}

// boolArg binds "true"/"false" (or "1"/"0") to the INTEGER the column stores.
func boolArg(v string) (any, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

func newBookshelfItems(s *Store) *Entity[domain.BookshelfItem, *domain.BookshelfItem] {
	return (&Entity[domain.BookshelfItem, *domain.BookshelfItem]{
		store:   s,
		kind:    domain.KindBookshelfItem,
		table:   "bookshelf_items",
		columns: []string{"type", "bookshelf_id", "ebook_id", "series_id", `"order"`, "note"},
		values: func(i *domain.BookshelfItem) []any {
			return []any{i.Type, i.BookshelfID, i.EbookID, i.SeriesID, i.Order, i.Note}
		},
		fields: func(i *domain.BookshelfItem) []any {
			return []any{&i.Type, &i.BookshelfID, &i.EbookID, &i.SeriesID, &i.Order, &i.Note}
		},
		filters: map[string]string{
			"bookshelf_id": "t.bookshelf_id = ?",
			"type":         "t.type = ?",
			"ebook_id":     "t.ebook_id = ?",
			"series_id":    "t.series_id = ?",
		},
		title: `"order"`,
	}).build()
}

// AddBookshelfItem places item on the bookshelf and bumps the bookshelf
// version. An Order of 0 appends after the last item.
func (s *Store) AddBookshelfItem(ctx context.Context, bookshelfID string, expected int64, item *domain.BookshelfItem, actor string) (int64, error) {
	key, err := id.Generate(string(domain.KindBookshelfItem))
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate id")
	}
	at := now()
	item.BookshelfID = bookshelfID
	item.Init(key, actor, at)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.bookshelves.checkVersion(ctx, tx, bookshelfID, expected); err != nil {
			return err
		}
		if err := item.Check(); err != nil {
			return err
		}
		if item.Order == 0 {
			err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX("order"), 0) + 1 FROM bookshelf_items WHERE bookshelf_id = ?`,
				bookshelfID).Scan(&item.Order)
			if err != nil {
				return classify(ctx, err, "next bookshelf position")
			}
		}
		if err := s.items.insert(ctx, tx, item); err != nil {
			return err
		}
		return s.bookshelves.bump(ctx, tx, bookshelfID, expected, at)
	})
	if err != nil {
		item.Entity = domain.Entity{}
		return 0, err
	}

	s.notify([]store.Change{
		{Kind: domain.KindBookshelf, ID: bookshelfID, Version: expected + 1, Op: store.OpUpsert, At: at},
		{Kind: domain.KindBookshelfItem, ID: key, Version: 1, Op: store.OpUpsert, At: at},
	})
	return expected + 1, nil
}

// RemoveBookshelfItem takes an item off the bookshelf and bumps the
// bookshelf version.
func (s *Store) RemoveBookshelfItem(ctx context.Context, bookshelfID string, expected int64, itemID string) (int64, error) {
	at := now()
	var last int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.bookshelves.checkVersion(ctx, tx, bookshelfID, expected); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx,
			"DELETE FROM bookshelf_items WHERE id = ? AND bookshelf_id = ? RETURNING version",
			itemID, bookshelfID).Scan(&last)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(domain.KindBookshelfItem, itemID)
		}
		if err != nil {
			return classifyDelete(ctx, err, "remove bookshelf item")
		}
		return s.bookshelves.bump(ctx, tx, bookshelfID, expected, at)
	})
	if err != nil {
		return 0, err
	}

	s.notify([]store.Change{
		{Kind: domain.KindBookshelf, ID: bookshelfID, Version: expected + 1, Op: store.OpUpsert, At: at},
		{Kind: domain.KindBookshelfItem, ID: itemID, Version: last, Op: store.OpDelete, At: at},
	})
	return expected + 1, nil
}

// UpdateBookshelfItem changes an item's position or note. Only the item's
// version moves.
func (s *Store) UpdateBookshelfItem(ctx context.Context, itemID string, expected int64, patch domain.BookshelfItemPatch) (int64, error) {
	return s.items.Update(ctx, itemID, expected, patch)
}

// GetBookshelfItem returns one item.
func (s *Store) GetBookshelfItem(ctx context.Context, itemID string) (*domain.BookshelfItem, error) {
	return s.items.Get(ctx, itemID)
}

// ListBookshelfItems lists items, usually filtered by bookshelf_id and
// sorted by position with store.SortTitle.
func (s *Store) ListBookshelfItems(ctx context.Context, params store.ListParams) (*store.Page[domain.BookshelfItem], error) {
	return s.items.List(ctx, params)
}
