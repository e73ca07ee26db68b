package intent

import "github.com/overlay-ai/assistant-core/internal/model"

// DecisionFromIntent re-derives a structured decision from the pattern
// router's result. It is used wholesale when the model classifier returns
// nothing; the two results are never merged field by field. The mapping is
// lossless for every field the router populates.
func DecisionFromIntent(in *model.AudioIntent) *model.AudioDecision {
	if in == nil {
		return nil
	}

	switch in.Action {
	case model.ActionVolumeSet:
		v := in.Value
		return &model.AudioDecision{Action: model.ActionVolumeSet, Value: &v}
	case model.ActionVolumeAdjust:
		return &model.AudioDecision{Action: model.ActionVolumeAdjust, Adjustment: in.Adjustment}
	case model.ActionPlay:
		mediaType := in.MediaType
		if in.SearchQuery != "" && mediaType == "" {
			mediaType = model.MediaTrack
		}
		return &model.AudioDecision{
			Action:      model.ActionPlay,
			SearchQuery: in.SearchQuery,
			MediaType:   mediaType,
		}
	case model.ActionQueue:
		return &model.AudioDecision{Action: model.ActionQueue, SearchQuery: in.SearchQuery}
	case model.ActionPause, model.ActionStop, model.ActionNext, model.ActionPrev:
		return &model.AudioDecision{Action: in.Action}
	default:
		return nil
	}
}
