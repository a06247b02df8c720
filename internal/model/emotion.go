package model

import "time"

// Emotion is one of the fixed facial-expression classes.
type Emotion string

const (
	Neutral   Emotion = "neutral"
	Happy     Emotion = "happy"
	Sad       Emotion = "sad"
	Angry     Emotion = "angry"
	Fearful   Emotion = "fearful"
	Disgusted Emotion = "disgusted"
	Surprised Emotion = "surprised"
)

// Emotions lists the label set in canonical order. Tie-breaks on dominant
// emotion selection follow this order.
var Emotions = []Emotion{Neutral, Happy, Sad, Angry, Fearful, Disgusted, Surprised}

// Valid reports whether e is in the label set.
func (e Emotion) Valid() bool {
	for _, x := range Emotions {
		if x == e {
			return true
		}
	}
	return false
}

// ClassScore is one entry of a per-class confidence distribution.
type ClassScore struct {
	Label      Emotion `json:"label"`
	Confidence float64 `json:"confidence"`
}

// DetectedEmotion is the result of one detection cycle. It is replaced on
// every tick and never persisted.
type DetectedEmotion struct {
	Label      Emotion       `json:"emotion"`
	Confidence float64       `json:"confidence"`
	Scores     []ClassScore  `json:"allEmotions"`
	CapturedAt time.Time     `json:"timestamp"`
	Latency    time.Duration `json:"-"`
}

// ScoreMap returns the per-class confidences keyed by label.
func (d DetectedEmotion) ScoreMap() map[Emotion]float64 {
	m := make(map[Emotion]float64, len(d.Scores))
	for _, s := range d.Scores {
		m[s.Label] = s.Confidence
	}
	return m
}

// MoodEvent is what the service emits to event sinks after a successful
// detection: the emotion plus a compact view of what it drove.
type MoodEvent struct {
	Emotion    Emotion   `json:"emotion"`
	Confidence float64   `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Matches    int       `json:"matches"`
	TopProduct string    `json:"topProduct,omitempty"`
	Count      int       `json:"count,omitempty"`
	Summary    string    `json:"summary"`
}
