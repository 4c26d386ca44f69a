package service

import (
	"context"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/store"
)

// SetEbookAuthors replaces the set of authors of an ebook and returns the
// ebook's new version.
func (c *Catalog) SetEbookAuthors(ctx context.Context, ebookID string, expected int64, authorIDs []string, actor string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	var version int64
	err := c.runner.run(ctx, domain.KindEbook, "set_authors", func(ctx context.Context) error {
		var err error
		version, err = c.store.SetEbookAuthors(ctx, ebookID, expected, authorIDs)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("ebook authors set", "id", ebookID, "authors", len(authorIDs), "version", version, "actor", actor)
	return version, nil
}

// SetEbookGenres replaces the genres of an ebook and returns the ebook's
// new version.
func (c *Catalog) SetEbookGenres(ctx context.Context, ebookID string, expected int64, genreIDs []string, actor string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	var version int64
	err := c.runner.run(ctx, domain.KindEbook, "set_genres", func(ctx context.Context) error {
		var err error
		version, err = c.store.SetEbookGenres(ctx, ebookID, expected, genreIDs)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("ebook genres set", "id", ebookID, "genres", len(genreIDs), "version", version, "actor", actor)
	return version, nil
}

// AddBookshelfItem places an ebook or a series on a bookshelf. It returns
// the new item's id and the bookshelf's new version.
func (c *Catalog) AddBookshelfItem(ctx context.Context, bookshelfID string, expected int64, item *domain.BookshelfItem, actor string) (string, int64, error) {
	if item == nil {
		return "", 0, domainerrors.Validation("bookshelf item is required")
	}
	if err := requireActor(actor); err != nil {
		return "", 0, err
	}
	if err := c.validator.Validate(item); err != nil {
		return "", 0, err
	}
	if err := item.Check(); err != nil {
		return "", 0, err
	}

	var version int64
	err := c.runner.run(ctx, domain.KindBookshelf, "add_item", func(ctx context.Context) error {
		var err error
		version, err = c.store.AddBookshelfItem(ctx, bookshelfID, expected, item, actor)
		return err
	})
	if err != nil {
		return "", 0, err
	}

	kind, target := item.Target()
	c.logger.Info("bookshelf item added", "bookshelf_id", bookshelfID, "item_id", item.ID, "target_kind", kind, "target_id", target, "actor", actor)
	return item.ID, version, nil
}

// RemoveBookshelfItem takes an item off a bookshelf and returns the
// bookshelf's new version.
func (c *Catalog) RemoveBookshelfItem(ctx context.Context, bookshelfID string, expected int64, itemID, actor string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	var version int64
	err := c.runner.run(ctx, domain.KindBookshelf, "remove_item", func(ctx context.Context) error {
		var err error
		version, err = c.store.RemoveBookshelfItem(ctx, bookshelfID, expected, itemID)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("bookshelf item removed", "bookshelf_id", bookshelfID, "item_id", itemID, "actor", actor)
	return version, nil
}

// UpdateBookshelfItem changes an item's order or note and returns the
// item's new version.
func (c *Catalog) UpdateBookshelfItem(ctx context.Context, itemID string, expected int64, patch domain.BookshelfItemPatch, actor string) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	if err := c.validator.Validate(patch); err != nil {
		return 0, err
	}

	var version int64
	err := c.runner.run(ctx, domain.KindBookshelfItem, "update", func(ctx context.Context) error {
		var err error
		version, err = c.store.UpdateBookshelfItem(ctx, itemID, expected, patch)
		return err
	})
	return version, err
}

// GetBookshelfItem returns one bookshelf item.
func (c *Catalog) GetBookshelfItem(ctx context.Context, itemID string) (*domain.BookshelfItem, error) {
	var item *domain.BookshelfItem
	err := c.runner.run(ctx, domain.KindBookshelfItem, "get", func(ctx context.Context) error {
		var err error
		item, err = c.store.GetBookshelfItem(ctx, itemID)
		return err
	})
	return item, err
}

// ListBookshelfItems lists items, typically filtered by bookshelf_id and
// sorted by title, which for items is their order.
func (c *Catalog) ListBookshelfItems(ctx context.Context, params store.ListParams) (*store.Page[domain.BookshelfItem], error) {
	var page *store.Page[domain.BookshelfItem]
	err := c.runner.run(ctx, domain.KindBookshelfItem, "list", func(ctx context.Context) error {
		var err error
		page, err = c.store.ListBookshelfItems(ctx, params)
		return err
	})
	return page, err
}

// AuthorsOf returns the authors of an ebook sorted by last then first name.
func (c *Catalog) AuthorsOf(ctx context.Context, ebookID string) ([]domain.AuthorRef, error) {
	var refs []domain.AuthorRef
	err := c.runner.run(ctx, domain.KindEbook, "authors_of", func(ctx context.Context) error {
		var err error
		refs, err = c.store.AuthorsOf(ctx, ebookID)
		return err
	})
	return refs, err
}

// GenresOf returns the genres of an ebook.
func (c *Catalog) GenresOf(ctx context.Context, ebookID string) ([]domain.GenreRef, error) {
	var refs []domain.GenreRef
	err := c.runner.run(ctx, domain.KindEbook, "genres_of", func(ctx context.Context) error {
		var err error
		refs, err = c.store.GenresOf(ctx, ebookID)
		return err
	})
	return refs, err
}

// EbooksOfAuthor returns the ids of the ebooks an author wrote.
func (c *Catalog) EbooksOfAuthor(ctx context.Context, authorID string) ([]string, error) {
	return c.ebookIDs(ctx, domain.KindAuthor, "ebooks_of", authorID, c.store.EbooksOfAuthor)
}

// EbooksOfGenre returns the ids of the ebooks in a genre.
func (c *Catalog) EbooksOfGenre(ctx context.Context, genreID string) ([]string, error) {
	return c.ebookIDs(ctx, domain.KindGenre, "ebooks_of", genreID, c.store.EbooksOfGenre)
}

// EbooksOfSeries returns the ids of a series' ebooks by series index.
func (c *Catalog) EbooksOfSeries(ctx context.Context, seriesID string) ([]string, error) {
	return c.ebookIDs(ctx, domain.KindSeries, "ebooks_of", seriesID, c.store.EbooksOfSeries)
}

func (c *Catalog) ebookIDs(ctx context.Context, kind domain.Kind, op, id string, fn func(context.Context, string) ([]string, error)) ([]string, error) {
	var ids []string
	err := c.runner.run(ctx, kind, op, func(ctx context.Context) error {
		var err error
		ids, err = fn(ctx, id)
		return err
	})
	return ids, err
}
