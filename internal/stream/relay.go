package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/internal/llm"
	"github.com/overlay-ai/assistant-core/pkg/logger"
	"github.com/overlay-ai/assistant-core/pkg/metrics"
)

// Relay drives a streaming LLM completion and republishes each token onto
// the session's event channel. It is the producing side of the token bus;
// the Consumer is the consuming side.
type Relay struct {
	client llm.Client
	bus    Bus
	model  string
	log    *logger.Logger
}

// NewRelay creates a relay. client may be nil; Run then reports the missing
// model as a stream error rather than panicking.
func NewRelay(client llm.Client, bus Bus, modelName string, log *logger.Logger) *Relay {
	return &Relay{client: client, bus: bus, model: modelName, log: log}
}

// Run streams one completion for prompt and publishes token/done/err events
// scoped to sessionID. Blocking; callers run it in a goroutine.
func (r *Relay) Run(ctx context.Context, sessionID, prompt string) {
	if r.client == nil {
		r.bus.PublishError(sessionID, "no language model is configured")
		return
	}

	start := time.Now()

	resp, err := r.client.CompleteStream(ctx, &llm.CompletionRequest{
		Model:    r.model,
		Messages: llm.UserMessage(prompt),
	}, func(token string, index int) error {
		return r.bus.PublishToken(sessionID, token)
	})
	if err != nil {
		r.log.Warn("chat stream failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		metrics.RecordLLMStream(r.model, "error", time.Since(start).Seconds(), 0, 0)
		r.bus.PublishError(sessionID, err.Error())
		return
	}

	metrics.RecordLLMStream(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	r.bus.PublishDone(sessionID)
}
