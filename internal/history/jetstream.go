package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/overlay-ai/assistant-core/internal/model"
)

const (
	// StreamName is the JetStream stream holding completed turns.
	StreamName = "ASSISTANT_HISTORY"

	// Subject carries every history record.
	Subject = "assistant.history.turn"
)

// JetStreamSink appends completed turns to a capped JetStream stream. The
// retention cap is enforced by the stream itself (MaxMsgs), so the newest
// records displace the oldest.
type JetStreamSink struct {
	js    jetstream.JetStream
	limit int
}

// NewJetStreamSink creates a sink over an existing JetStream context.
func NewJetStreamSink(js jetstream.JetStream, limit int) *JetStreamSink {
	if limit <= 0 {
		limit = 120
	}
	return &JetStreamSink{js: js, limit: limit}
}

// EnsureStream creates the history stream if it does not exist.
func (s *JetStreamSink) EnsureStream(ctx context.Context) error {
	if _, err := s.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := s.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{Subject},
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     int64(s.limit),
		Discard:     jetstream.DiscardOld,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Completed assistant conversation turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create history stream: %w", err)
	}

	return nil
}

// Append publishes item to the history stream.
func (s *JetStreamSink) Append(ctx context.Context, item model.ChatHistoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal history item: %w", err)
	}

	if _, err := s.js.Publish(ctx, Subject, data); err != nil {
		return fmt.Errorf("failed to publish history item: %w", err)
	}

	return nil
}
