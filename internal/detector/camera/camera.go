package camera

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crimson-sun/emoshop/internal/detector"
)

// ErrClosed is returned by Capture after Close.
var ErrClosed = errors.New("camera closed")

// ErrNoFrames is returned when the directory holds no images.
var ErrNoFrames = errors.New("camera: no frames available")

// Dir is a camera backed by a directory of still images. Each Capture
// returns the next image in name order, wrapping around. The listing is
// refreshed when the cycle wraps so new frames dropped into the directory
// are picked up.
type Dir struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	files  []string
	next   int
	closed bool
}

// Open returns a Dir camera over path.
func Open(path string) (*Dir, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("camera: %s is not a directory", path)
	}
	return &Dir{path: path, now: time.Now}, nil
}

func (c *Dir) Capture(ctx context.Context) (detector.Frame, error) {
	if err := ctx.Err(); err != nil {
		return detector.Frame{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return detector.Frame{}, ErrClosed
	}
	if c.next >= len(c.files) {
		files, err := listImages(c.path)
		if err != nil {
			return detector.Frame{}, err
		}
		c.files, c.next = files, 0
	}
	if len(c.files) == 0 {
		return detector.Frame{}, ErrNoFrames
	}

	name := c.files[c.next]
	c.next++
	data, err := os.ReadFile(name)
	if err != nil {
		return detector.Frame{}, fmt.Errorf("camera: %w", err)
	}
	return detector.Frame{
		Data:        data,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		CapturedAt:  c.now(),
	}, nil
}

// Close releases the camera. It is safe to call more than once.
func (c *Dir) Close() error {
	c.mu.Lock()
	c.closed = true
	c.files = nil
	c.mu.Unlock()
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
