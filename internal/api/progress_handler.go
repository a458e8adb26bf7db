package api

import (
	"log/slog"
	"net/http"

	"github.com/atxp-dev/atxp-image-demo/internal/events"
)

// ProgressHandler streams hub events to clients as newline-delimited JSON.
type ProgressHandler struct {
	hub    *events.Hub
	logger *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(hub *events.Hub, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{
		hub:    hub,
		logger: logger.With("component", "progress_handler"),
	}
}

// Stream handles GET /api/progress. The connection stays open until the
// client disconnects or the hub shuts down; each event is written as one
// JSON object per line and flushed immediately. A write failure detaches
// this subscriber without affecting the others.
func (h *ProgressHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	logger := h.logger.With("subscriber_id", sub.ID())
	logger.Debug("progress stream opened")

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("client disconnected")
			return

		case data, ok := <-sub.Events():
			if !ok {
				// Hub shut down.
				return
			}
			if _, err := w.Write(data); err != nil {
				logger.Debug("write failed, dropping subscriber", "error", err)
				return
			}
			if _, err := w.Write([]byte{'\n'}); err != nil {
				logger.Debug("write failed, dropping subscriber", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
