package orchestrator

import (
	"strings"

	"github.com/overlay-ai/assistant-core/internal/model"
)

// controlCall maps a decision onto the tool name and arguments the control
// service understands.
func controlCall(d *model.AudioDecision) (string, map[string]any) {
	switch d.Action {
	case model.ActionPlay:
		if d.SearchQuery == "" {
			return "resume_playback", nil
		}
		mediaType := d.MediaType
		if mediaType == "" {
			mediaType = model.MediaTrack
		}
		return "play_music", map[string]any{
			"query":      d.SearchQuery,
			"media_type": string(mediaType),
		}
	case model.ActionPause:
		return "pause_playback", nil
	case model.ActionStop:
		return "stop_playback", nil
	case model.ActionNext:
		return "next_track", nil
	case model.ActionPrev:
		return "previous_track", nil
	case model.ActionQueue:
		return "queue_track", map[string]any{"query": d.SearchQuery}
	case model.ActionVolumeSet:
		level := 0
		if d.Value != nil {
			level = *d.Value
		}
		return "set_volume", map[string]any{"level": level}
	case model.ActionVolumeAdjust:
		return "adjust_volume", map[string]any{"delta": d.Adjustment}
	default:
		return "", nil
	}
}

// controlResponse picks the text shown for a successful control turn.
func controlResponse(raw string) string {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return "Done."
}

// controlErrorResponse renders a failed control turn for the user.
func controlErrorResponse(err error) string {
	return "I couldn't complete that: " + err.Error()
}
