package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/plantid/internal/identification"
	"github.com/lehigh-university-libraries/plantid/internal/models"
)

// Identifier runs the identification pipeline for one image URL
type Identifier interface {
	Identify(ctx context.Context, imageURL string) (*identification.Result, error)
}

type Handler struct {
	identifier   Identifier
	maxBodyBytes int64
}

func New(identifier Identifier, maxBodyBytes int64) *Handler {
	return &Handler{
		identifier:   identifier,
		maxBodyBytes: maxBodyBytes,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}
	h.writeJSON(w, code, models.ErrorResponse{Error: message})
}
