package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openrelief/surveyflow"
	"github.com/openrelief/surveyflow/internal/config"
	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/pkg/adapters/file"
	"github.com/openrelief/surveyflow/pkg/adapters/memory"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/observability"
	"github.com/openrelief/surveyflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// host bundles what the long-running commands share: config, logger, storage and sessions.
type host struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  *config.Backend
	engine   *surveyflow.Engine
	sessions *session.Manager
	registry *prometheus.Registry
}

func newHost(cmd *cobra.Command, path string) (*host, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	// stdout may carry a protocol (mcp stdio), so logs always go to stderr.
	logger := logging.NewWriter(os.Stderr, level, cfg.LogJSON)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)
	hooks := domain.ChainHooks(observability.LoggingHooks(logger), metrics.Hooks())

	engineOpts := []surveyflow.Option{
		surveyflow.WithLogger(logger),
		surveyflow.WithLifecycleHooks(hooks),
	}
	if catalogPath, _ := cmd.Flags().GetString("catalog"); catalogPath != "" {
		resources, err := file.LoadCatalog(catalogPath)
		if err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
		engineOpts = append(engineOpts, surveyflow.WithResourceFinder(memory.NewCatalog(resources...)))
	}

	engine, err := surveyflow.New(path, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	backend, err := config.OpenBackend(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("submission store ready", "backend", backend.Name)

	return &host{
		cfg:      cfg,
		logger:   logger,
		backend:  backend,
		engine:   engine,
		sessions: engine.Sessions(backend.SessionOptions()...),
		registry: registry,
	}, nil
}

func (h *host) Close() {
	if err := h.backend.Close(); err != nil {
		h.logger.Warn("failed to close submission store", "err", err)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile == "" {
		return config.Load()
	}
	return config.Load(envFile)
}

// openStore opens only the configured submission store, for the offline commands.
func openStore(cmd *cobra.Command) (*config.Backend, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return config.OpenBackend(cmd.Context(), cfg)
}
