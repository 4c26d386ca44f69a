package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/indexsync"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/metrics"
)

// JournalHandle wraps the sync journal with shutdown capability.
type JournalHandle struct {
	*indexsync.Journal
}

// Shutdown implements do.Shutdownable.
func (h *JournalHandle) Shutdown() error {
	return h.Close()
}

// ProvideJournal provides the Badger journal of pending index tasks.
func ProvideJournal(i do.Injector) (*JournalHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	j, err := indexsync.OpenJournal(cfg.JournalPath(), log.Component("journal").Logger)
	if err != nil {
		return nil, err
	}
	return &JournalHandle{Journal: j}, nil
}

// CoordinatorHandle wraps the index sync coordinator with shutdown capability.
type CoordinatorHandle struct {
	*indexsync.Coordinator
}

// Shutdown implements do.Shutdownable.
func (h *CoordinatorHandle) Shutdown() error {
	h.Coordinator.Stop()
	return nil
}

// ProvideCoordinator provides the index sync coordinator, wires it to the
// store and starts its workers.
func ProvideCoordinator(i do.Injector) (*CoordinatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	journalHandle := do.MustInvoke[*JournalHandle](i)

	coord := indexsync.New(storeHandle.Store, indexHandle.Index, journalHandle.Journal, indexsync.Options{
		Workers:        cfg.Sync.Workers,
		InitialBackoff: cfg.Sync.InitialBackoff,
		MaxBackoff:     cfg.Sync.MaxBackoff,
		MaxAttempts:    cfg.Sync.MaxAttempts,
		IndexRate:      cfg.Sync.IndexRate,
		IndexBurst:     cfg.Sync.IndexBurst,
	}, m.Sync, log.Component("indexsync").Logger)

	// Wire to store so every commit is reported
	storeHandle.SetChangeNotifier(coord)

	if err := coord.Start(); err != nil {
		return nil, err
	}

	log.Info("Index sync started", "workers", cfg.Sync.Workers, "pending", coord.Pending())

	return &CoordinatorHandle{Coordinator: coord}, nil
}

// TriggerReindexIfNeeded rebuilds the search index in the background when
// it was created empty, or in the foreground when force is set.
func TriggerReindexIfNeeded(i do.Injector, force bool) error {
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	coordHandle := do.MustInvoke[*CoordinatorHandle](i)

	if force {
		log.Info("Rebuilding search index on request")
		return coordHandle.Rebuild(context.Background())
	}

	if !indexHandle.NeedsReindex {
		return nil
	}

	log.Info("Search index is new, triggering initial reindex")
	go func() {
		if err := coordHandle.Rebuild(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.DocumentCount()
		log.Info("Initial search reindex completed", "documents", count)
	}()
	return nil
}
