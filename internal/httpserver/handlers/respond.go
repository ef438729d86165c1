package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

// maxBodyBytes caps request bodies. Token snapshots are small.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type pinResponse struct {
	Success bool             `json:"success"`
	Reason  domain.PinReason `json:"reason,omitempty"`
	ID      string           `json:"id,omitempty"`
	Message string           `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// decodeJSON reads a single JSON value from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	return nil
}

// writePinResult maps a structured pin outcome to HTTP:
// success 200, limit 409, not_found 404.
func writePinResult(w http.ResponseWriter, res domain.PinResult) {
	status := http.StatusOK
	switch res.Reason {
	case domain.ReasonLimit:
		status = http.StatusConflict
	case domain.ReasonNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, pinResponse{
		Success: res.Success,
		Reason:  res.Reason,
		ID:      res.ID,
		Message: res.Message(),
	})
}

// writeRegistryError maps registry errors to HTTP and logs the unexpected ones.
func writeRegistryError(w http.ResponseWriter, log logger.Logger, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFavorite):
		writeError(w, http.StatusBadRequest, "invalid_favorite", err.Error())
	case errors.Is(err, favorites.ErrPinLimit):
		writeJSON(w, http.StatusConflict, pinResponse{
			Reason:  domain.ReasonLimit,
			Message: domain.PinLimit.Message(),
		})
	case errors.Is(err, favorites.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "not_ready", "favorites are not loaded yet")
	default:
		log.Error("favorites operation failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "persist_failed", "could not save favorites")
	}
}
