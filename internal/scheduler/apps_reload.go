package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/catalog"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
	"github.com/MrSnakeDoc/tokendock/internal/sources/apps"
)

// ReloadRecorder receives reload outcomes. *metrics.Metrics implements it.
type ReloadRecorder interface {
	AppsReload(count int, err error)
}

// AppsReloader keeps the catalog in sync with the apps file and cascades
// removed registrations to the favorites they own.
type AppsReloader struct {
	loader        *apps.Loader
	mapper        *apps.Mapper
	catalog       *catalog.Catalog
	registry      *favorites.Registry
	recorder      ReloadRecorder
	logger        logger.Logger
	interval      time.Duration
	debounce      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	reloadMu sync.Mutex
	watcher  *fileWatcher
}

// NewAppsReloader creates a new apps reloader
func NewAppsReloader(
	appsFile string,
	cat *catalog.Catalog,
	registry *favorites.Registry,
	recorder ReloadRecorder,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *AppsReloader {
	return &AppsReloader{
		loader:        apps.NewLoader(appsFile),
		mapper:        apps.NewMapper(),
		catalog:       cat,
		registry:      registry,
		recorder:      recorder,
		logger:        log,
		interval:      interval,
		debounce:      DefaultDebounceInterval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the catalog once, then reloads on the ticker, on manual
// triggers, and when the apps file changes on disk.
func (ar *AppsReloader) Start(ctx context.Context) error {
	if err := ar.Reload(ctx); err != nil {
		return fmt.Errorf("initial apps reload failed: %w", err)
	}

	w, err := newFileWatcher(ar.loader.Path(), ar.debounce, ar.logger)
	if err != nil {
		ar.logger.Warn("fsnotify not available, apps file is polled only",
			logger.String("path", ar.loader.Path()),
			logger.Duration("interval", ar.interval),
			logger.Error(err))
	}
	ar.watcher = w

	var fileChanged <-chan struct{}
	if w != nil {
		fileChanged = w.changed
	}

	ticker := time.NewTicker(ar.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ar.reloadLogged(ctx)
			case <-ar.manualTrigger:
				ar.logger.Info("manual apps reload triggered")
				ar.reloadLogged(ctx)
			case <-fileChanged:
				ar.logger.Info("apps file changed, reloading")
				ar.reloadLogged(ctx)
			case <-ar.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Watching reports whether file change notifications are active.
func (ar *AppsReloader) Watching() bool {
	return ar.watcher != nil
}

// Stop stops the reloader. Safe to call more than once.
func (ar *AppsReloader) Stop() {
	ar.stopOnce.Do(func() {
		close(ar.stopCh)
		if ar.watcher != nil {
			ar.watcher.close()
		}
	})
}

func (ar *AppsReloader) reloadLogged(ctx context.Context) {
	if err := ar.Reload(ctx); err != nil {
		ar.logger.Error("failed to reload apps", logger.Error(err))
	}
}

// Reload reads the apps file, swaps the catalog, and deletes favorites owned
// by apps that disappeared. A failed load keeps the previous catalog.
func (ar *AppsReloader) Reload(ctx context.Context) error {
	ar.reloadMu.Lock()
	defer ar.reloadMu.Unlock()

	config, err := ar.loader.Load()
	if err != nil {
		ar.record(0, err)
		return fmt.Errorf("failed to load apps: %w", err)
	}

	loaded, err := ar.mapper.MapApps(config)
	if err != nil {
		ar.record(0, err)
		return fmt.Errorf("failed to map apps: %w", err)
	}

	removed := ar.catalog.Update(loaded)
	ar.record(len(loaded), nil)
	ar.logger.Info("loaded apps", logger.Int("count", len(loaded)), logger.Int("removed", len(removed)))

	if len(removed) == 0 || ar.registry == nil {
		return nil
	}

	deleted, err := ar.registry.DeleteByOwner(ctx, removed)
	if err != nil {
		return fmt.Errorf("failed to delete favorites of removed apps: %w", err)
	}
	if deleted > 0 {
		ar.logger.Info("removed favorites of deleted apps",
			logger.Strings("apps", removed),
			logger.Int("favorites", deleted))
	}
	return nil
}

func (ar *AppsReloader) record(count int, err error) {
	if ar.recorder != nil {
		ar.recorder.AppsReload(count, err)
	}
}
