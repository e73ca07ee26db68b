package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-ai/assistant-core/internal/model"
)

func TestClassifyPlayTrack(t *testing.T) {
	r := NewRouter(10)

	intent := r.Classify("play the weeknd")
	require.NotNil(t, intent)
	assert.Equal(t, model.ActionPlay, intent.Action)
	assert.Equal(t, model.MediaTrack, intent.MediaType)
	assert.Equal(t, "the weeknd", intent.SearchQuery)
	assert.True(t, intent.Explicit)
}

func TestClassifyPlayTypedForms(t *testing.T) {
	r := NewRouter(10)

	tests := []struct {
		text      string
		mediaType model.MediaType
		query     string
	}{
		{"play playlist focus", model.MediaPlaylist, "focus"},
		{"play album abbey road", model.MediaAlbum, "abbey road"},
		{"play artist daft punk", model.MediaArtist, "daft punk"},
		{"play song bohemian rhapsody", model.MediaTrack, "bohemian rhapsody"},
		{"play deep focus playlist", model.MediaPlaylist, "deep focus"},
		{"play random access memories album", model.MediaAlbum, "random access memories"},
	}

	for _, tt := range tests {
		intent := r.Classify(tt.text)
		require.NotNil(t, intent, tt.text)
		assert.Equal(t, model.ActionPlay, intent.Action, tt.text)
		assert.Equal(t, tt.mediaType, intent.MediaType, tt.text)
		assert.Equal(t, tt.query, intent.SearchQuery, tt.text)
	}
}

func TestClassifyPlayRejectsNavigationWords(t *testing.T) {
	r := NewRouter(10)

	// "play the next one" must not become a track search.
	intent := r.Classify("play the next one")
	if intent != nil {
		assert.NotEqual(t, model.ActionPlay, intent.Action)
	}
}

func TestClassifyQueue(t *testing.T) {
	r := NewRouter(10)

	intent := r.Classify("queue hotel california")
	require.NotNil(t, intent)
	assert.Equal(t, model.ActionQueue, intent.Action)
	assert.Equal(t, "hotel california", intent.SearchQuery)

	intent = r.Classify("add hotel california to the queue")
	require.NotNil(t, intent)
	assert.Equal(t, model.ActionQueue, intent.Action)
	assert.Equal(t, "hotel california", intent.SearchQuery)
}

func TestClassifyVolumeSet(t *testing.T) {
	r := NewRouter(10)

	tests := []struct {
		text  string
		value int
	}{
		{"volume 40", 40},
		{"set volume to 40", 40},
		{"set the volume to 85", 85},
		{"volume 250", 100}, // clamped
		{"volume 0", 0},
	}

	for _, tt := range tests {
		intent := r.Classify(tt.text)
		require.NotNil(t, intent, tt.text)
		assert.Equal(t, model.ActionVolumeSet, intent.Action, tt.text)
		assert.Equal(t, tt.value, intent.Value, tt.text)
	}
}

func TestClassifyVolumeAdjust(t *testing.T) {
	r := NewRouter(10)

	intent := r.Classify("volume up")
	require.NotNil(t, intent)
	assert.Equal(t, model.ActionVolumeAdjust, intent.Action)
	assert.Equal(t, 10, intent.Adjustment)

	intent = r.Classify("turn the volume down")
	require.NotNil(t, intent)
	assert.Equal(t, model.ActionVolumeAdjust, intent.Action)
	assert.Equal(t, -10, intent.Adjustment)
}

func TestClassifyBareKeywords(t *testing.T) {
	r := NewRouter(10)

	tests := []struct {
		text   string
		action model.AudioAction
	}{
		{"pause", model.ActionPause},
		{"stop", model.ActionStop},
		{"next", model.ActionNext},
		{"skip", model.ActionNext},
		{"previous", model.ActionPrev},
		{"go back", model.ActionPrev},
		{"resume", model.ActionPlay},
		{"play", model.ActionPlay},
	}

	for _, tt := range tests {
		intent := r.Classify(tt.text)
		require.NotNil(t, intent, tt.text)
		assert.Equal(t, tt.action, intent.Action, tt.text)
		assert.Empty(t, intent.SearchQuery, tt.text)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	r := NewRouter(10)

	assert.Nil(t, r.Classify("what is the capital of france"))
	assert.Nil(t, r.Classify(""))
	assert.Nil(t, r.Classify("   "))
}

func TestExplicitFlag(t *testing.T) {
	r := NewRouter(10)

	// "stop" alone carries no unambiguous media keyword.
	intent := r.Classify("stop")
	require.NotNil(t, intent)
	assert.False(t, intent.Explicit)

	intent = r.Classify("pause")
	require.NotNil(t, intent)
	assert.True(t, intent.Explicit)
}

func TestLooksLikeControl(t *testing.T) {
	r := NewRouter(10)

	assert.True(t, r.LooksLikeControl("play the weeknd"))
	assert.True(t, r.LooksLikeControl("crank the volume up"))
	assert.False(t, r.LooksLikeControl("what is the weather"))

	// Documented false negative: a media request with none of the listed
	// keywords routes to chat.
	assert.False(t, r.LooksLikeControl("put on something relaxing"))
}
