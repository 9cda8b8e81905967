package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"venturelens/backend/internal/adapter/gemini"
	"venturelens/backend/internal/adapter/websearch"
	"venturelens/backend/internal/middleware"
	"venturelens/backend/internal/stream"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Query is required", http.StatusBadRequest)
		return
	}

	if req.Mode == "web" {
		h.queryWeb(w, r, req)
		return
	}

	answer, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.writeCompletionError(r.Context(), w, err)
		return
	}
	defer answer.Stream.Close()

	sources, _ := json.Marshal(answer.Sources)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Document-Sources", string(sources))

	flusher, _ := w.(http.Flusher)

	if _, err := stream.Copy(&eventWriter{w: w}, answer.Stream.Decoder); err != nil {
		// Client went away or upstream broke; either way the [DONE]
		// write below fails harmlessly if nobody is listening.
		slog.DebugContext(r.Context(), "stream interrupted", "error", err)
	}

	if _, err := w.Write([]byte("data: [DONE]\n\n")); err == nil && flusher != nil {
		flusher.Flush()
	}
}

// eventWriter re-frames each text delta as a client-facing SSE event;
// one Write call carries one delta.
type eventWriter struct {
	w http.ResponseWriter
}

func (e *eventWriter) Write(p []byte) (int, error) {
	event := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"delta": map[string]string{"content": string(p)}},
		},
	}
	payload, _ := json.Marshal(event)
	if _, err := e.w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (e *eventWriter) Flush() {
	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) queryWeb(w http.ResponseWriter, r *http.Request, req Request) {
	result, err := h.service.AskWeb(r.Context(), req)
	if err != nil {
		h.writeCompletionError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeCompletionError maps known upstream failure categories to
// distinct statuses; everything else is generic.
func (h *Handler) writeCompletionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gemini.ErrRateLimited) || errors.Is(err, websearch.ErrRateLimited):
		h.writeError(ctx, w, "RATE_LIMITED", "Rate limit exceeded. Please try again in a moment.", http.StatusTooManyRequests)
	case errors.Is(err, gemini.ErrQuotaExhausted):
		h.writeError(ctx, w, "QUOTA_EXHAUSTED", "AI credits exhausted. Please add credits to continue.", http.StatusPaymentRequired)
	default:
		slog.ErrorContext(ctx, "query failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to generate response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
