package onnx

import (
	"math"

	"github.com/crimson-sun/emoshop/internal/model"
)

// ferPlusClasses is the FER+ output order. "contempt" has no counterpart in
// the label set and is dropped before normalization.
var ferPlusClasses = []string{"neutral", "happiness", "surprise", "sadness", "anger", "disgust", "fear", "contempt"}

var ferPlusLabels = map[string]model.Emotion{
	"neutral":   model.Neutral,
	"happiness": model.Happy,
	"surprise":  model.Surprised,
	"sadness":   model.Sad,
	"anger":     model.Angry,
	"disgust":   model.Disgusted,
	"fear":      model.Fearful,
}

// toScores maps FER+ logits onto the label set in canonical order and
// softmax-normalizes the kept classes.
func toScores(logits []float32) []model.ClassScore {
	kept := make(map[model.Emotion]float64, len(model.Emotions))
	vals := make([]float64, 0, len(model.Emotions))
	for i, name := range ferPlusClasses {
		if i >= len(logits) {
			break
		}
		e, ok := ferPlusLabels[name]
		if !ok {
			continue
		}
		kept[e] = float64(logits[i])
		vals = append(vals, float64(logits[i]))
	}
	if len(vals) == 0 {
		return nil
	}

	maxV := vals[0]
	for _, v := range vals[1:] {
		maxV = math.Max(maxV, v)
	}
	var sum float64
	for e, v := range kept {
		kept[e] = math.Exp(v - maxV)
		sum += kept[e]
	}

	out := make([]model.ClassScore, 0, len(model.Emotions))
	for _, e := range model.Emotions {
		v, ok := kept[e]
		if !ok {
			continue
		}
		out = append(out, model.ClassScore{Label: e, Confidence: v / sum})
	}
	return out
}
