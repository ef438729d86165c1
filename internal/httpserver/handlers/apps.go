package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
)

type appsResponse struct {
	Enabled    bool          `json:"enabled"`
	Apps       []*domain.App `json:"apps"`
	Count      int           `json:"count"`
	LastReload *time.Time    `json:"lastReload,omitempty"`
}

// Apps lists the catalog. Without an apps file the catalog is disabled
// and the list is empty.
func Apps(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Catalog == nil {
			writeJSON(w, http.StatusOK, appsResponse{Apps: []*domain.App{}})
			return
		}

		apps := d.Catalog.All()
		resp := appsResponse{Enabled: true, Apps: apps, Count: len(apps)}
		if last := d.Catalog.GetLastReload(); !last.IsZero() {
			resp.LastReload = &last
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
