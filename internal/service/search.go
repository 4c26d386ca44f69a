package service

import (
	"context"
	"strings"

	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/search"
)

// Search runs a full-text query over ebooks, authors and series.
// Results reflect committed changes once the sync coordinator applied them.
func (c *Catalog) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	for _, k := range params.Kinds {
		if !search.Indexed(k) {
			return nil, domainerrors.Validationf("kind %s is not searchable", k)
		}
	}
	if params.Limit < 0 || params.Offset < 0 {
		return nil, domainerrors.Validation("limit and offset cannot be negative")
	}
	if params.Limit > search.MaxLimit {
		params.Limit = search.MaxLimit
	}
	switch params.SortBy {
	case "", "relevance", "title", "recent":
	default:
		return nil, domainerrors.Validationf("unknown sort %q", params.SortBy)
	}

	var res *search.SearchResult
	err := c.runner.run(ctx, "search", "query", func(ctx context.Context) error {
		var err error
		res, err = c.searcher.Search(ctx, params)
		if err != nil && domainerrors.CodeOf(err) == "" {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "search")
		}
		return err
	})
	return res, err
}

// Reindex drops the search index and rebuilds it from the store.
func (c *Catalog) Reindex(ctx context.Context) error {
	// A full rebuild outlives the per-operation timeout.
	return c.indexer.Rebuild(ctx)
}

// WaitIndexed blocks until every committed change so far is searchable.
func (c *Catalog) WaitIndexed(ctx context.Context) error {
	return c.indexer.WaitIdle(ctx)
}

