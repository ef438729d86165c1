package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/mw"
)

func init() { Register(registerFavorites, withAPITimeout) }

func registerFavorites(r chi.Router, d deps.Deps) {
	r.Route("/api/favorites", func(r chi.Router) {
		r.Get("/", handlers.ListFavorites(d))
		r.Get("/pinned", handlers.PinnedFavorites(d))
		r.Get("/match", handlers.MatchFavorite(d))
		r.Get("/{id}", handlers.GetFavorite(d))

		// Every write below is a full store save.
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.RateBurst,
				RefillPerIPPerMin: d.RateRefill,
				MaxEntries:        1024,
				TrustProxy:        d.TrustProxy,
			}))

			r.Post("/", handlers.CreateFavorite(d))
			r.Delete("/", handlers.ClearFavorites(d))
			r.Post("/from-token", handlers.CreateFromToken(d))
			r.Post("/pin-from-token", handlers.PinFromToken(d))
			r.Post("/delete", handlers.DeleteMany(d))
			r.Post("/delete-by-owner", handlers.DeleteByOwner(d))

			r.Patch("/{id}", handlers.UpdateFavorite(d))
			r.Delete("/{id}", handlers.DeleteFavorite(d))
			r.Post("/{id}/use", handlers.UseFavorite(d))
			r.Post("/{id}/pin", handlers.PinFavorite(d))
			r.Delete("/{id}/pin", handlers.UnpinFavorite(d))
			r.Put("/{id}/pinned", handlers.SetPinned(d))
		})
	})
}
