// Package history persists completed conversation turns.
package history

import (
	"context"
	"sync"

	"github.com/overlay-ai/assistant-core/internal/model"
)

// Sink accepts completed turns. Records are append-only; the sink owns the
// retention cap.
type Sink interface {
	Append(ctx context.Context, item model.ChatHistoryItem) error
}

// MemorySink keeps the most recent limit records in memory. Used when no
// NATS server is configured, and by tests.
type MemorySink struct {
	mu    sync.Mutex
	limit int
	items []model.ChatHistoryItem
}

// NewMemorySink creates a sink capped at limit records.
func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = 120
	}
	return &MemorySink{limit: limit}
}

// Append records item, evicting the oldest entry past the cap.
func (s *MemorySink) Append(ctx context.Context, item model.ChatHistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, item)
	if len(s.items) > s.limit {
		s.items = s.items[len(s.items)-s.limit:]
	}
	return nil
}

// Items returns a copy of the stored records, oldest first.
func (s *MemorySink) Items() []model.ChatHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ChatHistoryItem, len(s.items))
	copy(out, s.items)
	return out
}
