package booking

import (
	"fmt"
	"sort"
	"sync"

	bookingerrors "carrent/internal/booking/errors"
)

// Ledger records which offer urls each requester currently holds.
type Ledger interface {
	Hold(requesterID, url string) error
	Release(requesterID, url string) error
	Held(requesterID string) []string
	Count(requesterID string) int
	Reset()
}

// MemoryLedger is a process-wide map of sets guarded by a mutex.
//
// Holds are counted per url, so two attempts for the same url each need
// their own Release before the url stops being held.
type MemoryLedger struct {
	mu    sync.RWMutex
	holds map[string]map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{holds: make(map[string]map[string]int)}
}

func (l *MemoryLedger) Hold(requesterID, url string) error {
	if requesterID == "" || url == "" {
		return bookingerrors.ErrInvalidHold
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	urls, ok := l.holds[requesterID]
	if !ok {
		urls = make(map[string]int)
		l.holds[requesterID] = urls
	}
	urls[url]++
	return nil
}

func (l *MemoryLedger) Release(requesterID, url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	urls := l.holds[requesterID]
	if urls[url] == 0 {
		return fmt.Errorf("%s for %s: %w", url, requesterID, bookingerrors.ErrHoldNotFound)
	}

	urls[url]--
	if urls[url] == 0 {
		delete(urls, url)
	}
	if len(urls) == 0 {
		delete(l.holds, requesterID)
	}
	return nil
}

// Held returns the distinct urls held by requesterID, sorted.
func (l *MemoryLedger) Held(requesterID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	urls := l.holds[requesterID]
	out := make([]string, 0, len(urls))
	for url := range urls {
		out = append(out, url)
	}
	sort.Strings(out)
	return out
}

func (l *MemoryLedger) Count(requesterID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.holds[requesterID])
}

// Requesters returns how many requesters hold at least one url.
func (l *MemoryLedger) Requesters() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.holds)
}

func (l *MemoryLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holds = make(map[string]map[string]int)
}
