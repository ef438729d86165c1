package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/catalog"
	"github.com/MrSnakeDoc/tokendock/internal/config"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
	"github.com/MrSnakeDoc/tokendock/internal/metrics"
	"github.com/MrSnakeDoc/tokendock/internal/scheduler"
	"github.com/MrSnakeDoc/tokendock/internal/store"
	"github.com/MrSnakeDoc/tokendock/internal/utils"
	"github.com/MrSnakeDoc/tokendock/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	closer   io.Closer
	registry *favorites.Registry
	reloader *scheduler.AppsReloader
	orphans  *scheduler.OrphanCollector
}

// New wires the service: store, registry, optional apps catalog and HTTP server.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	m := metrics.New()

	registry, st, closer, err := OpenRegistry(ctx, cfg, loggerClient, m)
	if err != nil {
		return nil, err
	}

	// Catalog, reloader and orphan collector only exist with an apps file.
	var (
		cat           *catalog.Catalog
		reloader      *scheduler.AppsReloader
		orphans       *scheduler.OrphanCollector
		reloadTrigger chan struct{}
	)
	if cfg.AppsFile != "" {
		loggerClient.Info("apps file configured, initializing catalog",
			logger.String("file", cfg.AppsFile))
		cat = catalog.New()
		reloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewAppsReloader(
			cfg.AppsFile,
			cat,
			registry,
			m,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
		orphans = scheduler.NewOrphanCollector(registry, cat, loggerClient, cfg.OrphanInterval)
	} else {
		loggerClient.Info("apps file not configured, catalog and cascade cleanup disabled")
	}

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		RateBurst:      cfg.RateBurst,
		RateRefill:     cfg.RateRefill,
		Registry:       registry,
		Store:          st,
		Catalog:        cat,
		Metrics:        m,
		ReloadTrigger:  reloadTrigger,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   httpserver.New(cfg, loggerClient, d),
		store:    st,
		closer:   closer,
		registry: registry,
		reloader: reloader,
		orphans:  orphans,
	}, nil
}

// Run starts background workers and the HTTP server, and blocks until
// SIGINT/SIGTERM or a server error.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting tokendock v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start apps reloader: %w", err)
		}
		a.logger.Info("apps reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval),
			logger.Bool("watching", a.reloader.Watching()))

		if err := a.orphans.Start(ctx); err != nil {
			return fmt.Errorf("failed to start orphan collector: %w", err)
		}
		a.logger.Info("orphan collector started",
			logger.Duration("interval", a.cfg.OrphanInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.stopWorkers()
		return err
	}

	a.stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.closer, a.logger, a.store.Name())
	a.logger.Info("✅ tokendock stopped cleanly")
	return nil
}

func (a *App) stopWorkers() {
	if a.reloader != nil {
		a.reloader.Stop()
	}
	if a.orphans != nil {
		a.orphans.Stop()
	}
}
