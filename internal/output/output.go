package output

import (
	"context"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Output defines the interface for mood event destinations.
type Output interface {
	Write(ctx context.Context, event model.MoodEvent) error
	Close() error
}
