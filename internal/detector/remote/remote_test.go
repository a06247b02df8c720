package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/model"
)

func TestDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect_emotion" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !strings.HasPrefix(req.Image, "data:image/jpeg;base64,") {
			t.Errorf("unexpected image prefix: %.30s", req.Image)
		}
		w.Write([]byte(`{"emotion":"surprise","confidence":0.61,"all_emotions":{"surprise":0.61,"fear":0.2,"happy":0.19,"contempt":0.5}}`))
	}))
	defer srv.Close()

	d, err := New(srv.URL+"/", 0)
	if err != nil {
		t.Fatal(err)
	}
	de, err := detector.Analyze(context.Background(), d, detector.Frame{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if de.Label != model.Surprised || de.Confidence != 0.61 {
		t.Fatalf("unexpected %+v", de)
	}
	m := de.ScoreMap()
	if m[model.Fearful] != 0.2 || m[model.Happy] != 0.19 {
		t.Fatalf("scores not mapped: %v", m)
	}
}

func TestDetect_DominantOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"emotion":"sad","confidence":0.8}`))
	}))
	defer srv.Close()

	d, _ := New(srv.URL, 0)
	de, err := detector.Analyze(context.Background(), d, detector.Frame{Data: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	if de.Label != model.Sad || de.Confidence != 0.8 {
		t.Fatalf("unexpected %+v", de)
	}
}

func TestDetect_UnprocessableIsNoFace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"Emotion detection failed"}`))
	}))
	defer srv.Close()

	d, _ := New(srv.URL, 0)
	if _, err := d.Detect(context.Background(), detector.Frame{Data: []byte("x")}); !errors.Is(err, detector.ErrNoFace) {
		t.Fatalf("expected ErrNoFace, got %v", err)
	}
}

func TestDetect_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, _ := New(srv.URL, 0)
	_, err := d.Detect(context.Background(), detector.Frame{Data: []byte("x")})
	if err == nil || errors.Is(err, detector.ErrNoFace) {
		t.Fatalf("expected a detection failure, got %v", err)
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]model.Emotion{
		"happy": model.Happy, "Fear": model.Fearful, "disgust": model.Disgusted,
		"surprise": model.Surprised, "surprised": model.Surprised, " neutral ": model.Neutral,
	}
	for in, want := range tests {
		if got, ok := Label(in); !ok || got != want {
			t.Errorf("Label(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := Label("contempt"); ok {
		t.Error("contempt should not map")
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New("", 0); err == nil {
		t.Fatal("expected error")
	}
}
