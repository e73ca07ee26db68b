// Package intent classifies user text into media-control actions.
//
// Two classifiers cooperate: a deterministic pattern router (this file) that
// answers synchronously, and a model-assisted classifier that produces a
// richer structured decision under a deadline. The router's result stands in
// whenever the model result is unavailable.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/overlay-ai/assistant-core/internal/model"
)

// mediaKeywords are the words that mark a line as unambiguously about audio.
// Bare navigation words ("next", "stop", "back") are deliberately absent:
// they only read as control commands once something else in the line does.
var mediaKeywordRe = regexp.MustCompile(`\b(play|pause|resume|music|song|track|album|artist|playlist|volume|queue|spotify|skip)\b`)

var (
	playTrailingRe = regexp.MustCompile(`^play\s+(.+?)\s+(playlist|album|artist)$`)
	playTypedRe    = regexp.MustCompile(`^play\s+(playlist|album|artist|track|song)\s+(.+)$`)
	playBareRe     = regexp.MustCompile(`^play\s+(.+)$`)
	queueRe        = regexp.MustCompile(`^(?:queue|add)\s+(?:up\s+)?(.+?)(?:\s+to(?:\s+the)?\s+queue)?$`)
	volumeSetRe    = regexp.MustCompile(`^(?:set\s+)?(?:the\s+)?volume(?:\s+to)?\s+(\d{1,3})$`)
	volumeDirRe    = regexp.MustCompile(`^(?:turn\s+)?(?:the\s+)?volume\s+(up|down)$`)
	navWordRe      = regexp.MustCompile(`\b(next|previous|skip)\b`)
)

// Router is the deterministic pattern classifier. Rules are evaluated in
// priority order; the first match wins.
type Router struct {
	rules []rule
	step  int
}

type rule func(r *Router, text string) *model.AudioIntent

// NewRouter creates a router. step is the magnitude of a relative volume
// adjustment ("volume up"/"volume down").
func NewRouter(step int) *Router {
	if step <= 0 {
		step = 10
	}
	r := &Router{step: step}
	r.rules = []rule{
		(*Router).matchPlayTrailing,
		(*Router).matchPlayTyped,
		(*Router).matchPlayBare,
		(*Router).matchQueue,
		(*Router).matchVolume,
		(*Router).matchBareKeyword,
	}
	return r
}

// Classify maps raw text to a coarse control intent, or nil when nothing
// matches. Pure and synchronous.
func (r *Router) Classify(text string) *model.AudioIntent {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	for _, match := range r.rules {
		if intent := match(r, normalized); intent != nil {
			intent.Explicit = containsMediaKeyword(normalized)
			return intent
		}
	}
	return nil
}

// LooksLikeControl reports whether text should be dispatched to the control
// path at all. This is a keyword-presence heuristic: a media request phrased
// without any of the listed keywords falls through to chat. That
// false-negative is intentional, long-standing behavior.
func (r *Router) LooksLikeControl(text string) bool {
	normalized := normalize(text)
	if containsMediaKeyword(normalized) {
		return true
	}
	intent := r.Classify(text)
	return intent != nil && intent.Explicit
}

func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}

func containsMediaKeyword(normalized string) bool {
	return mediaKeywordRe.MatchString(normalized)
}

// "play deep focus playlist" — trailing type keyword wins over the bare form.
func (r *Router) matchPlayTrailing(text string) *model.AudioIntent {
	m := playTrailingRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &model.AudioIntent{
		Action:      model.ActionPlay,
		MediaType:   model.MediaType(m[2]),
		SearchQuery: strings.TrimSpace(m[1]),
	}
}

// "play playlist focus", "play album abbey road"
func (r *Router) matchPlayTyped(text string) *model.AudioIntent {
	m := playTypedRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	mediaType := m[1]
	if mediaType == "song" {
		mediaType = "track"
	}
	return &model.AudioIntent{
		Action:      model.ActionPlay,
		MediaType:   model.MediaType(mediaType),
		SearchQuery: strings.TrimSpace(m[2]),
	}
}

// "play the weeknd" — but not "play the next one".
func (r *Router) matchPlayBare(text string) *model.AudioIntent {
	m := playBareRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	query := strings.TrimSpace(m[1])
	if navWordRe.MatchString(query) {
		return nil
	}
	return &model.AudioIntent{
		Action:      model.ActionPlay,
		MediaType:   model.MediaTrack,
		SearchQuery: query,
	}
}

func (r *Router) matchQueue(text string) *model.AudioIntent {
	if !strings.HasPrefix(text, "queue ") && !strings.HasPrefix(text, "add ") {
		return nil
	}
	m := queueRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	query := strings.TrimSpace(m[1])
	if query == "" {
		return nil
	}
	return &model.AudioIntent{
		Action:      model.ActionQueue,
		SearchQuery: query,
	}
}

func (r *Router) matchVolume(text string) *model.AudioIntent {
	if m := volumeSetRe.FindStringSubmatch(text); m != nil {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		return &model.AudioIntent{
			Action: model.ActionVolumeSet,
			Value:  clampVolume(value),
		}
	}

	if m := volumeDirRe.FindStringSubmatch(text); m != nil {
		delta := r.step
		if m[1] == "down" {
			delta = -r.step
		}
		return &model.AudioIntent{
			Action:     model.ActionVolumeAdjust,
			Adjustment: delta,
		}
	}

	return nil
}

var bareKeywordActions = []struct {
	words  []string
	action model.AudioAction
}{
	{[]string{"pause", "hold on", "hold the music"}, model.ActionPause},
	{[]string{"stop", "stop playing", "stop the music"}, model.ActionStop},
	{[]string{"next", "next track", "next song", "skip", "skip this", "skip this song"}, model.ActionNext},
	{[]string{"previous", "previous track", "previous song", "prev", "go back", "back"}, model.ActionPrev},
	{[]string{"play", "resume", "resume playing", "keep playing"}, model.ActionPlay},
}

func (r *Router) matchBareKeyword(text string) *model.AudioIntent {
	for _, entry := range bareKeywordActions {
		for _, w := range entry.words {
			if text == w {
				return &model.AudioIntent{Action: entry.action}
			}
		}
	}
	return nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
