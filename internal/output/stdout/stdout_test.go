package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/output"
)

func testEvent() model.MoodEvent {
	return model.MoodEvent{
		Emotion:    model.Sad,
		Confidence: 0.77,
		Timestamp:  time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Matches:    12,
		TopProduct: "Grey Hoodie",
		Summary:    "sad: 12 matching products",
	}
}

func TestOutputCompactJSON(t *testing.T) {
	var buf bytes.Buffer
	out := New(&buf, output.Standard, false)
	if err := out.Write(context.Background(), testEvent()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var got model.MoodEvent
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Emotion != model.Sad || got.TopProduct != "Grey Hoodie" || got.Matches != 12 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestOutputPretty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, output.Standard, true).Write(context.Background(), testEvent())
	if !strings.Contains(buf.String(), "\n  \"emotion\"") {
		t.Fatalf("expected indented JSON, got %q", buf.String())
	}
}

func TestOutputMinimal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, output.Minimal, false).Write(context.Background(), testEvent())
	if strings.Contains(buf.String(), "topProduct") || strings.Contains(buf.String(), "confidence") {
		t.Fatalf("minimal should strip fields: %s", buf.String())
	}
}
