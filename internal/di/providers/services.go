package providers

import (
	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/service"
	"github.com/mybookshelf/catalog/internal/validation"
)

// ProvideCatalog provides the catalog service.
func ProvideCatalog(i do.Injector) (*service.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	v := do.MustInvoke[*validation.Validator](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	coordHandle := do.MustInvoke[*CoordinatorHandle](i)

	return service.NewCatalog(
		storeHandle.Store,
		indexHandle.Index,
		coordHandle.Coordinator,
		v,
		m.Store,
		service.Options{OperationTimeout: cfg.Storage.OperationTimeout},
		log.Component("catalog").Logger,
	), nil
}
