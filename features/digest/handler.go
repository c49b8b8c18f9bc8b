package digest

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// Generate runs the digest pipeline and returns the ranking as JSON.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.service.Run(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "digest run failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"ranking": ranking,
	})
}
