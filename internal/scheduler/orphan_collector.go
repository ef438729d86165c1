package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/catalog"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

const (
	// DefaultOrphanInterval is how often favorites are checked against the catalog
	DefaultOrphanInterval = time.Hour
)

// OrphanCollector deletes favorites whose owning app is no longer in the
// catalog. It covers removals that happened while the service was down,
// which the reloader never sees as a diff.
type OrphanCollector struct {
	registry *favorites.Registry
	catalog  *catalog.Catalog
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewOrphanCollector creates a new orphan collector
func NewOrphanCollector(
	registry *favorites.Registry,
	cat *catalog.Catalog,
	log logger.Logger,
	interval time.Duration,
) *OrphanCollector {
	if interval <= 0 {
		interval = DefaultOrphanInterval
	}

	return &OrphanCollector{
		registry: registry,
		catalog:  cat,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection process
func (oc *OrphanCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if _, err := oc.Collect(ctx); err != nil {
		oc.logger.Warn("initial orphan collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(oc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := oc.Collect(ctx); err != nil {
					oc.logger.Error("orphan collection failed",
						logger.Error(err))
				}
			case <-oc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector. Safe to call more than once.
func (oc *OrphanCollector) Stop() {
	oc.stopOnce.Do(func() { close(oc.stopCh) })
}

// Collect deletes favorites owned by unknown apps and returns how many went.
// Nothing is collected while the catalog is unloaded or empty.
func (oc *OrphanCollector) Collect(ctx context.Context) (int, error) {
	if !oc.catalog.Loaded() || oc.catalog.Count() == 0 {
		oc.logger.Debug("catalog empty, skipping orphan collection")
		return 0, nil
	}

	orphans := make(map[string]bool)
	for _, fav := range oc.registry.All() {
		if fav.AppID == "" || oc.catalog.Has(fav.AppID) {
			continue
		}
		orphans[fav.AppID] = true
	}

	if len(orphans) == 0 {
		oc.logger.Debug("no orphaned favorites")
		return 0, nil
	}

	owners := make([]string, 0, len(orphans))
	for id := range orphans {
		owners = append(owners, id)
	}
	sort.Strings(owners)

	deleted, err := oc.registry.DeleteByOwner(ctx, owners)
	if err != nil {
		return 0, err
	}

	oc.logger.Info("orphan collection completed",
		logger.Strings("apps", owners),
		logger.Int("favorites_deleted", deleted))
	return deleted, nil
}
