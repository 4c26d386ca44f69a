package store

import (
	"context"

	"github.com/mybookshelf/catalog/internal/domain"
)

// Repository is the versioned CRUD contract shared by every entity kind.
type Repository[T any] interface {
	// Create assigns id, version 1, timestamps and created_by, then inserts v.
	Create(ctx context.Context, v *T, actor string) error
	Get(ctx context.Context, id string) (*T, error)
	// Update applies patch if the stored version equals expected and
	// returns the new version.
	Update(ctx context.Context, id string, expected int64, patch domain.Patch[T]) (int64, error)
	// Delete removes the row and its dependents if the stored version equals expected.
	Delete(ctx context.Context, id string, expected int64) error
	List(ctx context.Context, params ListParams) (*Page[T], error)
}

// Relations maintains associations. Every mutation checks and bumps the
// version of the owning entity.
type Relations interface {
	SetEbookAuthors(ctx context.Context, ebookID string, expected int64, authorIDs []string) (int64, error)
	SetEbookGenres(ctx context.Context, ebookID string, expected int64, genreIDs []string) (int64, error)

	AddBookshelfItem(ctx context.Context, bookshelfID string, expected int64, item *domain.BookshelfItem, actor string) (int64, error)
	RemoveBookshelfItem(ctx context.Context, bookshelfID string, expected int64, itemID string) (int64, error)
	UpdateBookshelfItem(ctx context.Context, itemID string, expected int64, patch domain.BookshelfItemPatch) (int64, error)
	GetBookshelfItem(ctx context.Context, itemID string) (*domain.BookshelfItem, error)
	ListBookshelfItems(ctx context.Context, params ListParams) (*Page[domain.BookshelfItem], error)

	AuthorsOf(ctx context.Context, ebookID string) ([]domain.AuthorRef, error)
	GenresOf(ctx context.Context, ebookID string) ([]domain.GenreRef, error)
	EbooksOfAuthor(ctx context.Context, authorID string) ([]string, error)
	EbooksOfGenre(ctx context.Context, genreID string) ([]string, error)
	EbooksOfSeries(ctx context.Context, seriesID string) ([]string, error)
}

// Store is the catalog's system of record.
type Store interface {
	Languages() Repository[domain.Language]
	Series() Repository[domain.Series]
	Authors() Repository[domain.Author]
	Ebooks() Repository[domain.Ebook]
	Genres() Repository[domain.Genre]
	Formats() Repository[domain.Format]
	Sources() Repository[domain.Source]
	Bookshelves() Repository[domain.Bookshelf]
	ConversionBatches() Repository[domain.ConversionBatch]
	Conversions() Repository[domain.Conversion]
	EbookRatings() Repository[domain.EbookRating]
	SeriesRatings() Repository[domain.SeriesRating]

	Relations

	// SetChangeNotifier registers the receiver of committed changes.
	SetChangeNotifier(n ChangeNotifier)
	Ping(ctx context.Context) error
	Close() error
}
