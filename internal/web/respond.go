// Package web writes the JSON responses shared by the HTTP certificate
// functions, with the CORS headers attached to every response, error
// responses included.
package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/veridoc/certificateflow/internal/apperr"
	"github.com/veridoc/certificateflow/internal/models"
)

// CORSConfig is the slice of configuration the response layer needs.
type CORSConfig struct {
	AllowedOrigin  string
	AuthHeaderName string
}

// SetHeaders attaches the CORS headers.
func SetHeaders(w http.ResponseWriter, cfg CORSConfig) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", cfg.AllowedOrigin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
	h.Set("Access-Control-Allow-Headers", fmt.Sprintf("Content-Type, %s", cfg.AuthHeaderName))
}

// Respond writes a JSON payload with the given status.
func Respond(w http.ResponseWriter, cfg CORSConfig, status int, payload interface{}) {
	SetHeaders(w, cfg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write response body.", "error", err)
	}
}

// RespondError converts a pipeline error into the uniform error body.
func RespondError(w http.ResponseWriter, cfg CORSConfig, err error) {
	Respond(w, cfg, apperr.HTTPStatus(err), models.ErrorResponse{Error: err.Error()})
}

// Preflight answers a CORS preflight request.
func Preflight(w http.ResponseWriter, cfg CORSConfig) {
	SetHeaders(w, cfg)
	w.WriteHeader(http.StatusNoContent)
}
