// Package multi delivers each mood event to every configured sink.
package multi

import (
	"context"
	"errors"
	"fmt"

	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/output"
)

// Sink is a named mood event destination such as "stdout" or "webhook".
type Sink struct {
	Name string
	Out  output.Output
}

// Fanout writes mood events to its sinks in registration order. Errors are
// tagged with the sink name; one sink failing does not skip the others.
type Fanout struct {
	sinks []Sink
}

// New creates a Fanout. Sinks with a nil Out are ignored.
func New(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s.Out != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Write delivers event to every sink. Nothing is written once ctx is done.
func (f *Fanout) Write(ctx context.Context, event model.MoodEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var errs []error
	for _, s := range f.sinks {
		if err := s.Out.Write(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes sinks in reverse registration order.
func (f *Fanout) Close() error {
	var errs []error
	for i := len(f.sinks) - 1; i >= 0; i-- {
		if err := f.sinks[i].Out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.sinks[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

// Names lists the sinks in delivery order.
func (f *Fanout) Names() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name
	}
	return names
}
