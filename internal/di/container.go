// Package di provides dependency injection configuration for the catalog.
package di

import (
	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/di/providers"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/service"
	"github.com/mybookshelf/catalog/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideJournal)

	// Index sync
	do.Provide(injector, providers.ProvideCoordinator)

	// Business services
	do.Provide(injector, providers.ProvideCatalog)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. When reindex is set the search index
// is rebuilt from the database before Bootstrap returns.
func Bootstrap(injector *do.RootScope, reindex bool) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.JournalHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CoordinatorHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*service.Catalog](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return providers.TriggerReindexIfNeeded(injector, reindex)
}
