package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/store"
)

type componentStatus struct {
	OK          bool     `json:"ok"`
	Driver      string   `json:"driver,omitempty"`
	Count       *int     `json:"count,omitempty"`
	Keys        []string `json:"keys,omitempty"`
	Pinned      *int     `json:"pinned,omitempty"`
	MaxPinned   int      `json:"max_pinned,omitempty"`
	Version     *uint64  `json:"version,omitempty"`
	Subscribers *int     `json:"subscribers,omitempty"`
	LastReload  string   `json:"last_reload,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports per-component status and an overall mode:
// "ok", "degraded" (catalog down) or "critical" (favorites unusable).
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"store":     checkStore(r.Context(), d),
			"favorites": favoritesStatus(d),
			"catalog":   catalogStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if !components["store"].OK || !components["favorites"].OK {
		return "critical"
	}
	if c := components["catalog"]; !c.OK && c.Mode != "disabled" {
		return "degraded"
	}
	return "ok"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(parent, probeTimeout)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			Driver: d.Store.Name(),
			Impact: "writes-failing",
			Error:  err.Error(),
		}
	}
	status := componentStatus{OK: true, Driver: d.Store.Name()}
	if lister, ok := d.Store.(store.Lister); ok {
		keys, err := lister.Keys(ctx)
		if err != nil {
			status.Error = err.Error()
			return status
		}
		status.Keys = keys
	}
	return status
}

func favoritesStatus(d deps.Deps) componentStatus {
	if !d.Registry.Loaded() {
		return componentStatus{Error: "not loaded"}
	}
	count := d.Registry.Count()
	pinned := d.Registry.PinnedCount()
	version := d.Registry.Version()
	subs := d.Registry.Subscribers()
	return componentStatus{
		OK:          true,
		Count:       &count,
		Pinned:      &pinned,
		MaxPinned:   domain.MaxPinned,
		Version:     &version,
		Subscribers: &subs,
	}
}

func catalogStatus(d deps.Deps) componentStatus {
	if d.Catalog == nil {
		return componentStatus{Mode: "disabled", Impact: "no-cascade-cleanup"}
	}

	count := d.Catalog.Count()
	lastReload := "never"
	if t := d.Catalog.GetLastReload(); !t.IsZero() {
		lastReload = t.Format("2006-01-02 15:04:05")
	}
	return componentStatus{
		OK:         d.Catalog.Loaded(),
		Count:      &count,
		LastReload: lastReload,
	}
}
