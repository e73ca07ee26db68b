package model

import "time"

// TurnStatus is the lifecycle state of the current conversation item.
type TurnStatus string

const (
	StatusThinking  TurnStatus = "thinking"
	StatusCompleted TurnStatus = "completed"
)

// ConversationItem is the single visible conversation turn. Exactly one item
// exists at a time; it is mutated in place as tokens arrive and transitions
// to completed exactly once.
type ConversationItem struct {
	ID           string     `json:"id"`
	PromptText   string     `json:"prompt_text"`
	Status       TurnStatus `json:"status"`
	ResponseText string     `json:"response_text"`
}

// ChatHistoryItem is the immutable record appended once a turn completes.
type ChatHistoryItem struct {
	ID           string    `json:"id"`
	PromptText   string    `json:"prompt_text"`
	ResponseText string    `json:"response_text"`
	Timestamp    time.Time `json:"timestamp"`
}

// StateSnapshot is the read model exposed to the presentation layer.
type StateSnapshot struct {
	Item        *ConversationItem `json:"item,omitempty"`
	Locked      bool              `json:"locked"`
	VisualState string            `json:"visual_state"`
	Amplitude   float64           `json:"amplitude"`
}
