package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}

	dbPath := cfg.DatabasePath()
	db, err := sqlite.Open(dbPath, sqlite.Options{BusyTimeout: cfg.Storage.BusyTimeout}, log.Component("store").Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
