package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/internal/history"
	"github.com/overlay-ai/assistant-core/internal/model"
	"github.com/overlay-ai/assistant-core/pkg/logger"
)

// StoppedResponse is the fixed text shown when the user cancels a turn.
const StoppedResponse = "Stopped."

// Reducer owns the single visible conversation item and its status
// transitions, independent of which path produced the result.
type Reducer struct {
	mu      sync.Mutex
	current *model.ConversationItem
	sink    history.Sink
	log     *logger.Logger
}

// NewReducer creates a reducer writing completed turns to sink.
func NewReducer(sink history.Sink, log *logger.Logger) *Reducer {
	return &Reducer{sink: sink, log: log}
}

// Begin replaces the current item with a fresh thinking turn. Any prior
// incomplete item is discarded, not archived; the in-memory model is
// single-turn.
func (r *Reducer) Begin(promptText string) model.ConversationItem {
	item := model.ConversationItem{
		ID:         uuid.Must(uuid.NewV7()).String(),
		PromptText: promptText,
		Status:     model.StatusThinking,
	}

	r.mu.Lock()
	r.current = &item
	r.mu.Unlock()

	return item
}

// AppendToken accumulates a streamed chunk. A mismatched id means a new turn
// began before this stale token arrived; the chunk is dropped.
func (r *Reducer) AppendToken(itemID, chunk string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || r.current.ID != itemID || r.current.Status != model.StatusThinking {
		return false
	}
	r.current.ResponseText += chunk
	return true
}

// Complete transitions the item to completed exactly once and appends it to
// history. finalText, when non-empty, overwrites the accumulated response.
// Idempotent: a repeated call for the same id is a no-op.
func (r *Reducer) Complete(ctx context.Context, itemID, finalText string) bool {
	r.mu.Lock()
	if r.current == nil || r.current.ID != itemID || r.current.Status == model.StatusCompleted {
		r.mu.Unlock()
		return false
	}

	r.current.Status = model.StatusCompleted
	if finalText != "" {
		r.current.ResponseText = finalText
	}
	record := model.ChatHistoryItem{
		ID:           r.current.ID,
		PromptText:   r.current.PromptText,
		ResponseText: r.current.ResponseText,
		Timestamp:    time.Now().UTC(),
	}
	r.mu.Unlock()

	if err := r.sink.Append(ctx, record); err != nil {
		r.log.Warn("failed to persist history item",
			zap.String("item_id", record.ID),
			zap.Error(err),
		)
	}
	return true
}

// MarkStopped is the user-cancellation variant of Complete.
func (r *Reducer) MarkStopped(ctx context.Context, itemID string) bool {
	return r.Complete(ctx, itemID, StoppedResponse)
}

// Current returns a copy of the visible item.
func (r *Reducer) Current() (model.ConversationItem, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return model.ConversationItem{}, false
	}
	return *r.current, true
}

// Clear drops the visible item entirely.
func (r *Reducer) Clear() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}
