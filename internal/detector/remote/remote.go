package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crimson-sun/emoshop/internal/catalog/httpclient"
	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/model"
)

const detectPath = "/detect_emotion"

// Detector delegates classification to an HTTP emotion service that accepts
// a base64 data URI and answers with DeepFace-style labels.
type Detector struct {
	client *httpclient.Client
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Emotion     string             `json:"emotion"`
	Confidence  float64            `json:"confidence"`
	AllEmotions map[string]float64 `json:"all_emotions"`
}

// New creates a Detector posting to endpoint + "/detect_emotion".
func New(endpoint string, timeout time.Duration) (*Detector, error) {
	if endpoint == "" {
		return nil, errors.New("remote detector: endpoint is required")
	}
	return &Detector{
		client: httpclient.New(strings.TrimRight(endpoint, "/"), "", httpclient.WithTimeout(timeout)),
	}, nil
}

func (d *Detector) Detect(ctx context.Context, f detector.Frame) ([]detector.Detection, error) {
	ct := f.ContentType
	if ct == "" {
		ct = http.DetectContentType(f.Data)
	}
	req := detectRequest{Image: "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(f.Data)}

	var resp detectResponse
	if err := d.client.PostJSON(ctx, detectPath, req, &resp); err != nil {
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return nil, detector.ErrNoFace
		}
		return nil, fmt.Errorf("remote detector: %w", err)
	}

	scores := make(map[model.Emotion]float64, len(resp.AllEmotions))
	for name, v := range resp.AllEmotions {
		if e, ok := Label(name); ok {
			scores[e] = v
		}
	}
	if len(scores) == 0 {
		// Only the dominant label came back.
		e, ok := Label(resp.Emotion)
		if !ok {
			return nil, detector.ErrNoFace
		}
		scores[e] = resp.Confidence
	}
	return []detector.Detection{{Scores: detector.Ordered(scores)}}, nil
}

func (d *Detector) Close() error { return nil }

var aliases = map[string]model.Emotion{
	"fear":     model.Fearful,
	"disgust":  model.Disgusted,
	"surprise": model.Surprised,
}

// Label maps a service label (DeepFace or canonical) onto the label set.
func Label(name string) (model.Emotion, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if e, ok := aliases[n]; ok {
		return e, true
	}
	e := model.Emotion(n)
	return e, e.Valid()
}
