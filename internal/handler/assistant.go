package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/overlay-ai/assistant-core/internal/middleware"
	"github.com/overlay-ai/assistant-core/internal/orchestrator"
	"github.com/overlay-ai/assistant-core/pkg/logger"
)

// AssistantHandler handles the assistant turn endpoints.
type AssistantHandler struct {
	orch *orchestrator.Orchestrator
	log  *logger.Logger
}

// NewAssistantHandler creates an assistant handler.
func NewAssistantHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{orch: orch, log: log}
}

type submitRequest struct {
	Text string `json:"text"`
}

// Submit handles POST /api/v1/assistant/submit
func (h *AssistantHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSubmitText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.orch.Submit(r.Context(), req.Text)
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, orchestrator.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to start turn")
		return
	}

	writeJSON(w, http.StatusAccepted, item)
}

// Stop handles POST /api/v1/assistant/stop
func (h *AssistantHandler) Stop(w http.ResponseWriter, r *http.Request) {
	snap := h.orch.Stop(r.Context())
	writeJSON(w, http.StatusOK, snap)
}

// Clear handles POST /api/v1/assistant/clear
func (h *AssistantHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.orch.ClearPrompt()
	w.WriteHeader(http.StatusNoContent)
}

// CycleVisual handles POST /api/v1/assistant/visual/cycle
func (h *AssistantHandler) CycleVisual(w http.ResponseWriter, r *http.Request) {
	state := h.orch.CycleVisualState()
	writeJSON(w, http.StatusOK, map[string]string{
		"visual_state": string(state),
	})
}

// State handles GET /api/v1/assistant/state
func (h *AssistantHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Snapshot())
}
