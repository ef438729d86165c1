package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/catalog"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
	"github.com/MrSnakeDoc/tokendock/internal/metrics"
	"github.com/MrSnakeDoc/tokendock/internal/store"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	AllowedHosts   []string            // Host headers allowed to access the server
	AllowedCIDRS   []string            // networks allowed to reach the API (default loopback)
	AllowedOrigins []string            // CORS origins (the UI dev server)
	TrustProxy     bool                // true if running behind a trusted reverse proxy
	RateBurst      int                 // mutating requests per client, burst
	RateRefill     int                 // mutating requests per client, per minute
	Registry       *favorites.Registry // favorites authority
	Store          store.Store         // backing store, for health checks
	Catalog        *catalog.Catalog    // app registrations (nil if no apps file)
	Metrics        *metrics.Metrics    // Prometheus collectors (nil disables /metrics)
	ReloadTrigger  chan struct{}       // Channel to trigger manual apps reload (nil if catalog disabled)
	KeepAlive      time.Duration       // SSE comment interval, defaults to 15s
	Streams        context.Context     // cancelled on shutdown to end SSE streams (may be nil)
}
