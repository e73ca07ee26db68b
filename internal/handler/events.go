package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/pkg/metrics"
)

const (
	statePushInterval = 100 * time.Millisecond
	heartbeatInterval = 15 * time.Second
)

// Events handles GET /api/v1/assistant/events, pushing state snapshots over
// SSE so the presentation layer can render the item, lock and visual state
// without polling.
func (h *AssistantHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	push := time.NewTicker(statePushInterval)
	defer push.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	// Initial snapshot so clients render immediately.
	if err := sendSSEEvent(w, flusher, "state", h.orch.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-push.C:
			if err := sendSSEEvent(w, flusher, "state", h.orch.Snapshot()); err != nil {
				h.log.Debug("SSE client disconnected", zap.Error(err))
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
