package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/handlers"
)

func init() { Register(registerApps, withAPITimeout) }

func registerApps(r chi.Router, d deps.Deps) {
	r.Get("/api/apps", handlers.Apps(d))
}
