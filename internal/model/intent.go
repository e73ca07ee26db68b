// Package model defines the data types shared across the orchestration core.
package model

// AudioAction is the coarse control action derived from user text.
type AudioAction string

const (
	ActionPlay         AudioAction = "play"
	ActionPause        AudioAction = "pause"
	ActionStop         AudioAction = "stop"
	ActionNext         AudioAction = "next"
	ActionPrev         AudioAction = "prev"
	ActionQueue        AudioAction = "queue"
	ActionVolumeSet    AudioAction = "volume_set"
	ActionVolumeAdjust AudioAction = "volume_adjust"
	ActionNone         AudioAction = "none"
)

// ValidAction reports whether a is one of the known control actions.
func ValidAction(a AudioAction) bool {
	switch a {
	case ActionPlay, ActionPause, ActionStop, ActionNext, ActionPrev,
		ActionQueue, ActionVolumeSet, ActionVolumeAdjust, ActionNone:
		return true
	}
	return false
}

// MediaType narrows what a play request targets.
type MediaType string

const (
	MediaTrack    MediaType = "track"
	MediaAlbum    MediaType = "album"
	MediaArtist   MediaType = "artist"
	MediaPlaylist MediaType = "playlist"
)

// AudioIntent is the deterministic classification produced by the pattern
// router. Only the fields relevant to Action are populated.
type AudioIntent struct {
	Action      AudioAction
	MediaType   MediaType
	SearchQuery string
	Value       int // volume target for ActionVolumeSet
	Adjustment  int // signed delta for ActionVolumeAdjust

	// Explicit is true when the text contained an unambiguous audio/media
	// keyword, as opposed to a bare word like "stop" that only reads as a
	// control command in context.
	Explicit bool
}

// AudioDecision is the structured action object a caller executes. It is
// produced either by the model-assisted classifier or derived from an
// AudioIntent when the model result is unavailable; consumers cannot tell
// which path produced it.
type AudioDecision struct {
	Action      AudioAction `json:"action"`
	SearchQuery string      `json:"search_query,omitempty"`
	MediaType   MediaType   `json:"media_type,omitempty"`
	Value       *int        `json:"value,omitempty"`
	Adjustment  int         `json:"adjustment,omitempty"`
}
