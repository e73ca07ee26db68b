package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/internal/llm"
	"github.com/overlay-ai/assistant-core/internal/model"
	"github.com/overlay-ai/assistant-core/pkg/logger"
	"github.com/overlay-ai/assistant-core/pkg/metrics"
)

const classifierPrompt = `You are a music control command parser. Given the user's text, respond with ONLY a JSON object, no prose, matching this schema:
{"action": "play|pause|stop|next|prev|queue|volume_set|volume_adjust|none", "search_query": "optional string", "media_type": "track|album|artist|playlist", "value": 0-100, "adjustment": signed integer}
Omit fields that do not apply. Use "none" when the text is not a music control command.

User text: `

// ModelClassifier asks the language model for a structured AudioDecision,
// bounded by a timeout. A nil result means the caller should fall back to
// the pattern router.
type ModelClassifier struct {
	client  llm.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewModelClassifier creates a classifier. client may be nil, in which case
// every classification falls back.
func NewModelClassifier(client llm.Client, modelName string, timeout time.Duration, log *logger.Logger) *ModelClassifier {
	if timeout <= 0 {
		timeout = 4500 * time.Millisecond
	}
	return &ModelClassifier{client: client, model: modelName, timeout: timeout, log: log}
}

// Classify races a structured-output completion against the timeout. The
// losing side is ignored, not cancelled at the protocol level: the context is
// released so the transport can wind down, but any late result is discarded.
func (c *ModelClassifier) Classify(ctx context.Context, text string) *model.AudioDecision {
	if c.client == nil {
		metrics.ClassifierFallbacksTotal.WithLabelValues("unavailable").Inc()
		return nil
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan *model.AudioDecision, 1)
	go func() {
		resp, err := c.client.Complete(callCtx, &llm.CompletionRequest{
			Model:     c.model,
			Messages:  llm.UserMessage(classifierPrompt + text),
			MaxTokens: 256,
		})
		if err != nil {
			c.log.Debug("classification call failed", zap.Error(err))
			metrics.ClassifierFallbacksTotal.WithLabelValues("transport").Inc()
			results <- nil
			return
		}

		decision := ParseDecision(resp.Content)
		if decision == nil {
			metrics.ClassifierFallbacksTotal.WithLabelValues("parse").Inc()
		}
		results <- decision
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case decision := <-results:
		return decision
	case <-timer.C:
		c.log.Debug("classification timed out", zap.Duration("timeout", c.timeout))
		metrics.ClassifierFallbacksTotal.WithLabelValues("timeout").Inc()
		return nil
	case <-ctx.Done():
		return nil
	}
}

// ParseDecision extracts the first balanced JSON object from raw model output
// and parses it into an AudioDecision. Returns nil on any parse failure.
func ParseDecision(raw string) *model.AudioDecision {
	block := extractJSONBlock(raw)
	if block == "" {
		return nil
	}

	var decision model.AudioDecision
	if err := json.Unmarshal([]byte(block), &decision); err != nil {
		return nil
	}
	if !model.ValidAction(decision.Action) || decision.Action == "" {
		return nil
	}

	if decision.Action == model.ActionVolumeSet {
		if decision.Value == nil {
			return nil
		}
		v := clampVolume(*decision.Value)
		decision.Value = &v
	}
	if decision.Action == model.ActionPlay && decision.MediaType == "" {
		decision.MediaType = model.MediaTrack
	}

	decision.SearchQuery = strings.TrimSpace(decision.SearchQuery)
	return &decision
}

// extractJSONBlock returns the first balanced {...} region of s, tracking
// string literals and escapes so braces inside values do not confuse the
// depth count.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if escaped {
			escaped = false
			continue
		}

		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}

	return ""
}
