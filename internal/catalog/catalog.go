package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

// Catalog is the in-memory index of app registrations favorites can belong to.
type Catalog struct {
	mu         sync.RWMutex
	apps       map[string]*domain.App // ID -> App
	lastReload time.Time
	loaded     bool
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{
		apps: make(map[string]*domain.App),
	}
}

// Update replaces all apps and returns the ids that were present before but not anymore.
func (c *Catalog) Update(apps []*domain.App) (removed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]*domain.App, len(apps))
	for _, app := range apps {
		next[app.ID] = app
	}
	for id := range c.apps {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)

	c.apps = next
	c.lastReload = time.Now()
	c.loaded = true
	return removed
}

// Get retrieves an app by ID
func (c *Catalog) Get(id string) (*domain.App, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	app, ok := c.apps[id]
	return app, ok
}

// Has reports whether id is a known app.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// All returns all apps ordered by name, then id.
func (c *Catalog) All() []*domain.App {
	c.mu.RLock()
	defer c.mu.RUnlock()

	apps := make([]*domain.App, 0, len(c.apps))
	for _, app := range c.apps {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].Name != apps[j].Name {
			return apps[i].Name < apps[j].Name
		}
		return apps[i].ID < apps[j].ID
	})
	return apps
}

// Count returns the number of apps in the catalog
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.apps)
}

// Loaded reports whether at least one Update happened.
// An unloaded catalog must not be used to decide that a favorite is orphaned.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loaded
}

// GetLastReload returns the timestamp of the last reload
func (c *Catalog) GetLastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastReload
}

// Resolve fills AppName and AppColor from the catalog when the token context
// only carries an AppID. Values already set by the caller are kept.
func (c *Catalog) Resolve(tc domain.TokenContext) domain.TokenContext {
	if tc.AppID == "" {
		return tc
	}
	app, ok := c.Get(tc.AppID)
	if !ok {
		return tc
	}
	if tc.AppName == "" {
		tc.AppName = app.Name
	}
	if tc.AppColor == "" {
		tc.AppColor = app.Color
	}
	return tc
}
