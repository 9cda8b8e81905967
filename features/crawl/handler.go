package crawl

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	coordinator *Coordinator
}

func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// Trigger runs a full crawl pass synchronously and reports the summary.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary := h.coordinator.Run(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": summary}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
