package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

type listResponse struct {
	Favorites   []domain.Favorite `json:"favorites"`
	Count       int               `json:"count"`
	PinnedCount int               `json:"pinnedCount"`
	MaxPinned   int               `json:"maxPinned"`
	Version     uint64            `json:"version"`
}

type pinnedResponse struct {
	Favorites []domain.Favorite `json:"favorites"`
	Count     int               `json:"count"`
	Max       int               `json:"max"`
}

type tokenRequest struct {
	Token  domain.TokenContext   `json:"token"`
	Extras domain.FavoriteExtras `json:"extras"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type ownersRequest struct {
	OwnerIDs []string `json:"ownerIds"`
}

type pinnedRequest struct {
	Pinned *bool `json:"pinned"`
}

type deletedResponse struct {
	Deleted int `json:"deleted"`
}

type duplicateResponse struct {
	Error string `json:"error"`
	ID    string `json:"id"`
}

// ListFavorites returns the sorted collection. Optional filters:
// ?q=free text (ranked), ?tokenType=AppToken|UserToken and ?tag=name.
func ListFavorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		tokenType := domain.TokenType(q.Get("tokenType"))
		tag := strings.TrimSpace(q.Get("tag"))

		all := d.Registry.Search(q.Get("q"))
		out := make([]domain.Favorite, 0, len(all))
		for i := range all {
			if tokenType != "" && all[i].TokenType != tokenType {
				continue
			}
			if tag != "" && !all[i].HasTag(tag) {
				continue
			}
			out = append(out, all[i])
		}

		writeJSON(w, http.StatusOK, listResponse{
			Favorites:   out,
			Count:       len(out),
			PinnedCount: d.Registry.PinnedCount(),
			MaxPinned:   domain.MaxPinned,
			Version:     d.Registry.Version(),
		})
	}
}

func PinnedFavorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pinned := d.Registry.Pinned()
		writeJSON(w, http.StatusOK, pinnedResponse{
			Favorites: pinned,
			Count:     len(pinned),
			Max:       domain.MaxPinned,
		})
	}
}

// MatchFavorite looks a favorite up by natural key.
func MatchFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		tokenType := domain.TokenType(q.Get("tokenType"))
		if !tokenType.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_token_type", "tokenType must be AppToken or UserToken")
			return
		}
		fav, ok := d.Registry.FindMatch(tokenType, q.Get("target"))
		if !ok {
			writeError(w, http.StatusNotFound, string(domain.ReasonNotFound), "")
			return
		}
		writeJSON(w, http.StatusOK, fav)
	}
}

func GetFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fav, ok := d.Registry.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, string(domain.ReasonNotFound), "")
			return
		}
		writeJSON(w, http.StatusOK, fav)
	}
}

// CreateFavorite inserts a fully formed favorite. A missing id is generated.
func CreateFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fav domain.Favorite
		if err := decodeJSON(w, r, &fav); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if fav.ID == "" {
			fav.ID = uuid.NewString()
		}
		stored, added, err := d.Registry.AddIfAbsent(r.Context(), fav)
		if err != nil {
			writeRegistryError(w, d.Logger, "add", err)
			return
		}
		writeCreated(w, stored, added)
	}
}

// CreateFromToken saves the token as a new favorite.
func CreateFromToken(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeTokenRequest(d, w, r)
		if !ok {
			return
		}
		fav, added, err := d.Registry.AddFromTokenIfAbsent(r.Context(), req.Token, req.Extras)
		if err != nil {
			writeRegistryError(w, d.Logger, "add_from_token", err)
			return
		}
		writeCreated(w, fav, added)
	}
}

// PinFromToken pins the token's favorite, creating it when needed.
func PinFromToken(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeTokenRequest(d, w, r)
		if !ok {
			return
		}
		res, err := d.Registry.PinFromToken(r.Context(), req.Token, req.Extras)
		if err != nil {
			writeRegistryError(w, d.Logger, "pin_from_token", err)
			return
		}
		writePinResult(w, res)
	}
}

func UpdateFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var patch domain.FavoritePatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		fav, found, err := d.Registry.Update(r.Context(), id, patch)
		if err != nil {
			writeRegistryError(w, d.Logger, "update", err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, string(domain.ReasonNotFound), "")
			return
		}
		writeJSON(w, http.StatusOK, fav)
	}
}

// DeleteFavorite is idempotent: a missing id answers 200 with deleted=0.
func DeleteFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := d.Registry.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeRegistryError(w, d.Logger, "delete", err)
			return
		}
		n := 0
		if removed {
			n = 1
		}
		writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
	}
}

func DeleteMany(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		n, err := d.Registry.DeleteMany(r.Context(), req.IDs)
		if err != nil {
			writeRegistryError(w, d.Logger, "delete_many", err)
			return
		}
		writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
	}
}

func DeleteByOwner(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ownersRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		n, err := d.Registry.DeleteByOwner(r.Context(), req.OwnerIDs)
		if err != nil {
			writeRegistryError(w, d.Logger, "delete_by_owner", err)
			return
		}
		writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
	}
}

func ClearFavorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Registry.Clear(r.Context()); err != nil {
			writeRegistryError(w, d.Logger, "clear", err)
			return
		}
		d.Logger.Info("favorites cleared via endpoint", logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}

func UseFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		fav, found, err := d.Registry.IncrementUse(r.Context(), id)
		if err != nil {
			writeRegistryError(w, d.Logger, "increment_use", err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, string(domain.ReasonNotFound), "")
			return
		}
		writeJSON(w, http.StatusOK, fav)
	}
}

func PinFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Registry.Pin(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeRegistryError(w, d.Logger, "pin", err)
			return
		}
		writePinResult(w, res)
	}
}

func UnpinFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Registry.Unpin(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeRegistryError(w, d.Logger, "unpin", err)
			return
		}
		writePinResult(w, res)
	}
}

func SetPinned(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pinnedRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if req.Pinned == nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "pinned is required")
			return
		}
		res, err := d.Registry.SetPinned(r.Context(), chi.URLParam(r, "id"), *req.Pinned)
		if err != nil {
			writeRegistryError(w, d.Logger, "set_pinned", err)
			return
		}
		writePinResult(w, res)
	}
}

// writeCreated answers 201 with the new favorite, or 409 naming the
// favorite that already holds the natural key.
func writeCreated(w http.ResponseWriter, fav domain.Favorite, added bool) {
	if !added {
		writeJSON(w, http.StatusConflict, duplicateResponse{Error: "duplicate", ID: fav.ID})
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// decodeTokenRequest reads a token request and fills app display fields
// from the catalog when one is configured.
func decodeTokenRequest(d deps.Deps, w http.ResponseWriter, r *http.Request) (tokenRequest, bool) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return req, false
	}
	if !req.Token.TokenType.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_token_type", "tokenType must be AppToken or UserToken")
		return req, false
	}
	if d.Catalog != nil {
		req.Token = d.Catalog.Resolve(req.Token)
	}
	return req, true
}
