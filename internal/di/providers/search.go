package providers

import (
	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
	// NeedsReindex is set when the index was created empty.
	NeedsReindex bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, created, err := search.Open(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Component("search").Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "created", created)

	return &SearchIndexHandle{Index: index, NeedsReindex: created}, nil
}
