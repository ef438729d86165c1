package mw

import (
	"encoding/json"
	"net/http"
)

// deny writes the JSON error shape used by the API handlers.
func deny(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
