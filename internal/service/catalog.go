// Package service is the catalog's application layer. It validates input,
// bounds each operation by a timeout and delegates to the store; the store
// reports committed changes to the index sync coordinator on its own.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/search"
	"github.com/mybookshelf/catalog/internal/store"
	"github.com/mybookshelf/catalog/internal/validation"
)

// Searcher runs full-text queries.
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// Indexer keeps the search index in step with the store.
type Indexer interface {
	Rebuild(ctx context.Context) error
	WaitIdle(ctx context.Context) error
}

// Options configures the Catalog.
type Options struct {
	OperationTimeout time.Duration // Default 10s
}

// Catalog is the entry point for every catalog operation.
type Catalog struct {
	store     store.Store
	searcher  Searcher
	indexer   Indexer
	validator *validation.Validator
	runner    *runner
	logger    *slog.Logger

	languages         *Collection[domain.Language, *domain.Language]
	series            *Collection[domain.Series, *domain.Series]
	authors           *Collection[domain.Author, *domain.Author]
	ebooks            *Collection[domain.Ebook, *domain.Ebook]
	genres            *Collection[domain.Genre, *domain.Genre]
	formats           *Collection[domain.Format, *domain.Format]
	sources           *Collection[domain.Source, *domain.Source]
	bookshelves       *Collection[domain.Bookshelf, *domain.Bookshelf]
	conversionBatches *Collection[domain.ConversionBatch, *domain.ConversionBatch]
	conversions       *Collection[domain.Conversion, *domain.Conversion]
	ebookRatings      *Collection[domain.EbookRating, *domain.EbookRating]
	seriesRatings     *Collection[domain.SeriesRating, *domain.SeriesRating]
}

// NewCatalog creates the catalog service.
func NewCatalog(st store.Store, searcher Searcher, indexer Indexer, v *validation.Validator, m *metrics.Store, opts Options, logger *slog.Logger) *Catalog {
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 10 * time.Second
	}
	if v == nil {
		v = validation.New()
	}
	if m == nil {
		m = metrics.Discard().Store
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &runner{timeout: opts.OperationTimeout, metrics: m, logger: logger}
	return &Catalog{
		store:     st,
		searcher:  searcher,
		indexer:   indexer,
		validator: v,
		runner:    r,
		logger:    logger,

		languages:         newCollection[domain.Language, *domain.Language](domain.KindLanguage, st.Languages(), v, r),
		series:            newCollection[domain.Series, *domain.Series](domain.KindSeries, st.Series(), v, r),
		authors:           newCollection[domain.Author, *domain.Author](domain.KindAuthor, st.Authors(), v, r),
		ebooks:            newCollection[domain.Ebook, *domain.Ebook](domain.KindEbook, st.Ebooks(), v, r),
		genres:            newCollection[domain.Genre, *domain.Genre](domain.KindGenre, st.Genres(), v, r),
		formats:           newCollection[domain.Format, *domain.Format](domain.KindFormat, st.Formats(), v, r),
		sources:           newCollection[domain.Source, *domain.Source](domain.KindSource, st.Sources(), v, r),
		bookshelves:       newCollection[domain.Bookshelf, *domain.Bookshelf](domain.KindBookshelf, st.Bookshelves(), v, r),
		conversionBatches: newCollection[domain.ConversionBatch, *domain.ConversionBatch](domain.KindConversionBatch, st.ConversionBatches(), v, r),
		conversions:       newCollection[domain.Conversion, *domain.Conversion](domain.KindConversion, st.Conversions(), v, r),
		ebookRatings:      newCollection[domain.EbookRating, *domain.EbookRating](domain.KindEbookRating, st.EbookRatings(), v, r),
		seriesRatings:     newCollection[domain.SeriesRating, *domain.SeriesRating](domain.KindSeriesRating, st.SeriesRatings(), v, r),
	}
}

// Languages returns the Language collection.
func (c *Catalog) Languages() *Collection[domain.Language, *domain.Language] { return c.languages }

// Series returns the Series collection.
func (c *Catalog) Series() *Collection[domain.Series, *domain.Series] { return c.series }

// Authors returns the Author collection.
func (c *Catalog) Authors() *Collection[domain.Author, *domain.Author] { return c.authors }

// Ebooks returns the Ebook collection.
func (c *Catalog) Ebooks() *Collection[domain.Ebook, *domain.Ebook] { return c.ebooks }

// Genres returns the Genre collection.
func (c *Catalog) Genres() *Collection[domain.Genre, *domain.Genre] { return c.genres }

// Formats returns the Format collection.
func (c *Catalog) Formats() *Collection[domain.Format, *domain.Format] { return c.formats }

// Sources returns the Source collection.
func (c *Catalog) Sources() *Collection[domain.Source, *domain.Source] { return c.sources }

// Bookshelves returns the Bookshelf collection.
func (c *Catalog) Bookshelves() *Collection[domain.Bookshelf, *domain.Bookshelf] { return c.bookshelves }

// ConversionBatches returns the ConversionBatch collection.
func (c *Catalog) ConversionBatches() *Collection[domain.ConversionBatch, *domain.ConversionBatch] {
	return c.conversionBatches
}

// Conversions returns the Conversion collection.
func (c *Catalog) Conversions() *Collection[domain.Conversion, *domain.Conversion] { return c.conversions }

// EbookRatings returns the EbookRating collection.
func (c *Catalog) EbookRatings() *Collection[domain.EbookRating, *domain.EbookRating] {
	return c.ebookRatings
}

// SeriesRatings returns the SeriesRating collection.
func (c *Catalog) SeriesRatings() *Collection[domain.SeriesRating, *domain.SeriesRating] {
	return c.seriesRatings
}

// Ping checks that the store answers.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
