// Package setup wires the configured components of the evaluation engine
// into a runnable application.
package setup

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/prenatal-phenotype-server/internal/audit"
	"github.com/prenatal-phenotype-server/internal/domain"
	"github.com/prenatal-phenotype-server/internal/service"
)

// Application holds the constructed components of the evaluation engine.
type Application struct {
	Logger     *logrus.Logger
	Resolver   *service.GrowthReferenceResolver
	Registry   *service.EvaluationRegistry
	AuditStore audit.Store
}

// NewApplication constructs the logger, loads the reference tables and the
// mapping document, and opens the audit store.
func NewApplication(cfg *domain.Config) (*Application, error) {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	tables, err := service.LoadReferenceTables(logger, cfg.Reference.DataDir, domain.SourceStandard(cfg.Reference.Source))
	if err != nil {
		return nil, fmt.Errorf("loading reference tables: %w", err)
	}

	resolver, err := service.NewGrowthReferenceResolver(logger, tables)
	if err != nil {
		return nil, fmt.Errorf("building reference resolver: %w", err)
	}

	registry, err := service.NewEvaluationRegistryFromFile(logger, cfg.Mappings.Path)
	if err != nil {
		return nil, fmt.Errorf("loading mapping configuration: %w", err)
	}

	var store audit.Store = audit.NopStore{}
	if cfg.Audit.Enabled {
		store, err = audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		logger.WithField("path", cfg.Audit.DBPath).Info("Audit store opened")
	}

	return &Application{
		Logger:     logger,
		Resolver:   resolver,
		Registry:   registry,
		AuditStore: store,
	}, nil
}

// Close releases the application's resources.
func (a *Application) Close() error {
	return a.AuditStore.Close()
}

// newLogger builds the structured logger from configuration.
func newLogger(cfg domain.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	return logger, nil
}
