package file

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/output"
)

func testEvent(e model.Emotion) model.MoodEvent {
	return model.MoodEvent{
		Emotion:    e,
		Confidence: 0.9,
		Timestamp:  time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Matches:    3,
		Summary:    string(e) + ": 3 matching products",
	}
}

func readLines(t *testing.T, path string) []model.MoodEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var out []model.MoodEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e model.MoodEvent
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("invalid line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	return out
}

func TestWriteNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "moods.ndjson")
	o, err := New(path, output.Standard)
	if err != nil {
		t.Fatal(err)
	}
	o.Write(context.Background(), testEvent(model.Happy))
	o.Write(context.Background(), testEvent(model.Sad))
	if err := o.Close(); err != nil {
		t.Fatal(err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 || lines[0].Emotion != model.Happy || lines[1].Emotion != model.Sad {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestAppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moods.ndjson")
	for i := 0; i < 2; i++ {
		o, err := New(path, output.Standard)
		if err != nil {
			t.Fatal(err)
		}
		o.Write(context.Background(), testEvent(model.Angry))
		o.Close()
	}
	if n := len(readLines(t, path)); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}

func TestFlushEachWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moods.ndjson")
	o, _ := New(path, output.Standard, WithFlushEachWrite())
	defer o.Close()
	o.Write(context.Background(), testEvent(model.Neutral))
	if n := len(readLines(t, path)); n != 1 {
		t.Fatalf("expected line visible before Close, got %d", n)
	}
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moods.ndjson")
	o, err := New(path, output.Standard, WithMaxSize(200), WithMaxBackups(2))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := o.Write(context.Background(), testEvent(model.Surprised)); err != nil {
			t.Fatal(err)
		}
	}
	o.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected rotated file: %v", err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatal("only 2 backups should be kept")
	}
}

func TestWriteAfterClose(t *testing.T) {
	o, _ := New(filepath.Join(t.TempDir(), "m.ndjson"), output.Standard)
	o.Close()
	if err := o.Write(context.Background(), testEvent(model.Happy)); err == nil {
		t.Fatal("expected error after Close")
	}
	if err := o.Close(); err != nil {
		t.Fatal("second Close should be a no-op")
	}
}
