package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-ai/assistant-core/internal/llm"
	"github.com/overlay-ai/assistant-core/internal/model"
	"github.com/overlay-ai/assistant-core/pkg/logger"
)

// fakeLLM returns a canned completion after an optional delay.
type fakeLLM struct {
	content string
	delay   time.Duration
	err     error
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) Name() string { return "fake" }

func TestClassifyReturnsModelDecision(t *testing.T) {
	c := NewModelClassifier(
		&fakeLLM{content: `Sure! {"action":"play","search_query":"the weeknd","media_type":"track"}`},
		"", time.Second, logger.NewNop(),
	)

	decision := c.Classify(context.Background(), "play the weeknd")
	require.NotNil(t, decision)
	assert.Equal(t, model.ActionPlay, decision.Action)
	assert.Equal(t, "the weeknd", decision.SearchQuery)
	assert.Equal(t, model.MediaTrack, decision.MediaType)
}

func TestClassifyTimeoutReturnsNil(t *testing.T) {
	c := NewModelClassifier(
		&fakeLLM{content: `{"action":"pause"}`, delay: 500 * time.Millisecond},
		"", 20*time.Millisecond, logger.NewNop(),
	)

	start := time.Now()
	decision := c.Classify(context.Background(), "pause")
	assert.Nil(t, decision)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestClassifyTransportErrorReturnsNil(t *testing.T) {
	c := NewModelClassifier(
		&fakeLLM{err: errors.New("connection refused")},
		"", time.Second, logger.NewNop(),
	)

	assert.Nil(t, c.Classify(context.Background(), "pause"))
}

func TestClassifyNilClientReturnsNil(t *testing.T) {
	c := NewModelClassifier(nil, "", time.Second, logger.NewNop())
	assert.Nil(t, c.Classify(context.Background(), "pause"))
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *model.AudioDecision
	}{
		{
			name: "bare object",
			raw:  `{"action":"next"}`,
			want: &model.AudioDecision{Action: model.ActionNext},
		},
		{
			name: "object wrapped in prose",
			raw:  "Here is the parse:\n```json\n{\"action\":\"queue\",\"search_query\":\"hotel california\"}\n```\nDone.",
			want: &model.AudioDecision{Action: model.ActionQueue, SearchQuery: "hotel california"},
		},
		{
			name: "braces inside string values",
			raw:  `{"action":"play","search_query":"track with } brace","media_type":"track"}`,
			want: &model.AudioDecision{Action: model.ActionPlay, SearchQuery: "track with } brace", MediaType: model.MediaTrack},
		},
		{
			name: "no object",
			raw:  "I cannot help with that.",
			want: nil,
		},
		{
			name: "unknown action",
			raw:  `{"action":"dance"}`,
			want: nil,
		},
		{
			name: "unterminated object",
			raw:  `{"action":"play"`,
			want: nil,
		},
		{
			name: "volume set without value",
			raw:  `{"action":"volume_set"}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecision(tt.raw))
		})
	}
}

func TestParseDecisionClampsVolume(t *testing.T) {
	decision := ParseDecision(`{"action":"volume_set","value":300}`)
	require.NotNil(t, decision)
	require.NotNil(t, decision.Value)
	assert.Equal(t, 100, *decision.Value)
}

func TestTimeoutFallbackNeverNilForRouterMatches(t *testing.T) {
	// For any text the router matches, a model timeout must still yield a
	// usable decision through the fallback mapping.
	r := NewRouter(10)
	c := NewModelClassifier(
		&fakeLLM{content: `{"action":"pause"}`, delay: time.Second},
		"", 10*time.Millisecond, logger.NewNop(),
	)

	for _, text := range []string{"play the weeknd", "volume 40", "volume up", "pause", "queue hotel california"} {
		intent := r.Classify(text)
		require.NotNil(t, intent, text)

		decision := c.Classify(context.Background(), text)
		if decision == nil {
			decision = DecisionFromIntent(intent)
		}
		require.NotNil(t, decision, text)
		assert.NotEqual(t, model.ActionNone, decision.Action, text)
	}
}
