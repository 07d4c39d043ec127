// Package stats counts pipeline events. Recording is best-effort: a failing
// recorder is logged and never affects the pipeline.
package stats

import (
	"context"
	"errors"
	"time"

	"carrent/pkg/logger"
)

type Kind string

const (
	KindAggregated   Kind = "aggregated"
	KindSourceFailed Kind = "source_failed"
	KindFiltered     Kind = "filtered"
	KindBooked       Kind = "booked"
	KindNoCandidates Kind = "no_candidates"
	KindCompensated  Kind = "compensated"
	KindCooldown     Kind = "cooldown"
	KindDropped      Kind = "dropped"
)

type Event struct {
	Kind        Kind
	RequesterID string
	Source      string
	// Count defaults to 1 when zero.
	Count int64
	At    time.Time
}

func (e Event) delta() int64 {
	if e.Count == 0 {
		return 1
	}
	return e.Count
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) error { return nil }

func Nop() Recorder {
	return nopRecorder{}
}

type teeRecorder []Recorder

// Tee records every event to all recorders and joins their errors.
func Tee(recorders ...Recorder) Recorder {
	out := make(teeRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (t teeRecorder) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range t {
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Track records ev and logs, rather than returns, any failure.
func Track(ctx context.Context, r Recorder, log *logger.Logger, ev Event) {
	if r == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if err := r.Record(ctx, ev); err != nil && log != nil {
		log.Warn("Failed to record stats event",
			"kind", string(ev.Kind),
			"error", err,
		)
	}
}
