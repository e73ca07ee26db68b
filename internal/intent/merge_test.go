package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-ai/assistant-core/internal/model"
)

func TestDecisionFromIntentRoundTrip(t *testing.T) {
	// Every intent the router can produce must map to a decision without
	// losing query, type or numeric fields.
	r := NewRouter(10)

	texts := []string{
		"play the weeknd",
		"play playlist focus",
		"play album abbey road",
		"queue hotel california",
		"volume 40",
		"volume up",
		"turn the volume down",
		"pause",
		"stop",
		"next",
		"previous",
		"resume",
	}

	for _, text := range texts {
		intent := r.Classify(text)
		require.NotNil(t, intent, text)

		decision := DecisionFromIntent(intent)
		require.NotNil(t, decision, text)
		assert.Equal(t, intent.Action, decision.Action, text)
		assert.Equal(t, intent.SearchQuery, decision.SearchQuery, text)

		switch intent.Action {
		case model.ActionVolumeSet:
			require.NotNil(t, decision.Value, text)
			assert.Equal(t, intent.Value, *decision.Value, text)
		case model.ActionVolumeAdjust:
			assert.Equal(t, intent.Adjustment, decision.Adjustment, text)
		case model.ActionPlay:
			if intent.SearchQuery != "" {
				assert.NotEmpty(t, decision.MediaType, text)
			}
		}
	}
}

func TestDecisionFromIntentNil(t *testing.T) {
	assert.Nil(t, DecisionFromIntent(nil))
}
