package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/handlers"
)

// No timeout: the stream stays open until the client leaves.
func init() { Register(registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	r.Get("/api/events", handlers.Events(d))
}
