package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/api"
	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/metrics"
)

// HTTPServerHandle wraps the diagnostics http.Server with Shutdownable.
// Server is nil when diagnostics are disabled.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	if h.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the diagnostics server serving /metrics,
// /healthz and /readyz.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Diagnostics.Enabled {
		log.Info("Diagnostics server disabled")
		return &HTTPServerHandle{}, nil
	}

	m := do.MustInvoke[*metrics.Metrics](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	coordHandle := do.MustInvoke[*CoordinatorHandle](i)

	handler := api.NewServer(storeHandle.Store, indexHandle.Index, coordHandle.Coordinator, m.Registry, log.Component("diagnostics").Logger)

	srv := &http.Server{
		Addr:              cfg.Diagnostics.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start in background
	go func() {
		log.Info("Diagnostics server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Diagnostics server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
