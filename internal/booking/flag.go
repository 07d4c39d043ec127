package booking

import "sync/atomic"

// Flag is the per-context arbitration flag. It starts open; the first
// TryClose wins.
type Flag struct {
	closed atomic.Bool
}

func (f *Flag) TryClose() bool {
	return f.closed.CompareAndSwap(false, true)
}

func (f *Flag) Closed() bool {
	return f.closed.Load()
}
