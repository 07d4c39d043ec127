package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SoftCeiling is a best-effort throttle on in-flight fan-outs shared by every
// aggregator worker. A caller that finds the count at or above max waits one
// flat cooldown and then proceeds anyway.
//
// The check and the increment are separate atomic operations, so concurrent
// callers can push the count past max. It is a delay mechanism, not an
// admission gate.
type SoftCeiling struct {
	max      int64
	cooldown time.Duration
	inFlight atomic.Int64
}

// NewSoftCeiling returns a ceiling; max <= 0 disables throttling.
func NewSoftCeiling(max int, cooldown time.Duration) *SoftCeiling {
	return &SoftCeiling{
		max:      int64(max),
		cooldown: cooldown,
	}
}

// Enter registers one fan-out. The returned release must be called when the
// fan-out completes; calling it more than once has no further effect.
// throttled reports whether the caller sat out a cooldown.
func (c *SoftCeiling) Enter(ctx context.Context) (release func(), throttled bool, err error) {
	if c.max > 0 && c.inFlight.Load() >= c.max {
		throttled = true
		if err := sleep(ctx, c.cooldown); err != nil {
			return nil, true, err
		}
	}

	c.inFlight.Add(1)
	return sync.OnceFunc(func() { c.inFlight.Add(-1) }), throttled, nil
}

func (c *SoftCeiling) InFlight() int64 {
	return c.inFlight.Load()
}

func (c *SoftCeiling) Max() int {
	return int(c.max)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
