// Package providers contains dependency injection providers for the catalog.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting catalog",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
	)

	return log, nil
}

// ProvideMetrics provides the Prometheus collectors on a fresh registry.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(nil), nil
}

// ProvideValidator provides the payload validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
