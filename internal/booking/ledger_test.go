package booking

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	bookingerrors "carrent/internal/booking/errors"
)

func TestMemoryLedger_HoldAndRelease(t *testing.T) {
	l := NewMemoryLedger()

	if err := l.Hold("u1", "http://b/car?id=2"); err != nil {
		t.Fatalf("Hold() error = %v", err)
	}
	if err := l.Hold("u1", "http://a/car?id=1"); err != nil {
		t.Fatalf("Hold() error = %v", err)
	}
	if err := l.Hold("u2", "http://a/car?id=1"); err != nil {
		t.Fatalf("Hold() error = %v", err)
	}

	held := l.Held("u1")
	if len(held) != 2 || held[0] != "http://a/car?id=1" || held[1] != "http://b/car?id=2" {
		t.Errorf("Held(u1) = %v, want sorted two urls", held)
	}
	if l.Count("u2") != 1 {
		t.Errorf("Count(u2) = %d, want 1", l.Count("u2"))
	}

	if err := l.Release("u1", "http://a/car?id=1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if l.Count("u1") != 1 || l.Count("u2") != 1 {
		t.Errorf("release must only touch the given requester")
	}

	if err := l.Release("u1", "http://a/car?id=1"); !errors.Is(err, bookingerrors.ErrHoldNotFound) {
		t.Errorf("second Release() error = %v, want ErrHoldNotFound", err)
	}
	if err := l.Release("nobody", "x"); !errors.Is(err, bookingerrors.ErrHoldNotFound) {
		t.Errorf("Release() for unknown requester error = %v, want ErrHoldNotFound", err)
	}
}

func TestMemoryLedger_InvalidHold(t *testing.T) {
	l := NewMemoryLedger()
	tests := []struct {
		name      string
		requester string
		url       string
	}{
		{name: "empty requester", requester: "", url: "http://a/car?id=1"},
		{name: "empty url", requester: "u1", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.Hold(tt.requester, tt.url); !errors.Is(err, bookingerrors.ErrInvalidHold) {
				t.Errorf("Hold() error = %v, want ErrInvalidHold", err)
			}
		})
	}
}

func TestMemoryLedger_DuplicateHoldsAreCounted(t *testing.T) {
	l := NewMemoryLedger()
	url := "http://a/car?id=1"

	_ = l.Hold("u1", url)
	_ = l.Hold("u1", url)
	if l.Count("u1") != 1 {
		t.Errorf("Count() = %d, want 1 distinct url", l.Count("u1"))
	}

	_ = l.Release("u1", url)
	if l.Count("u1") != 1 {
		t.Errorf("url should stay held until every hold is released")
	}
	_ = l.Release("u1", url)
	if l.Count("u1") != 0 || l.Requesters() != 0 {
		t.Errorf("expected empty ledger, got count=%d requesters=%d", l.Count("u1"), l.Requesters())
	}
}

func TestMemoryLedger_Reset(t *testing.T) {
	l := NewMemoryLedger()
	_ = l.Hold("u1", "a")
	_ = l.Hold("u2", "b")

	l.Reset()

	if l.Requesters() != 0 || len(l.Held("u1")) != 0 {
		t.Errorf("Reset() left holds behind")
	}
}

func TestMemoryLedger_ConcurrentRequesters(t *testing.T) {
	l := NewMemoryLedger()
	var wg sync.WaitGroup

	for r := 0; r < 20; r++ {
		requester := fmt.Sprintf("u%d", r)
		for i := 0; i < 10; i++ {
			i := i
			url := fmt.Sprintf("http://s/car?id=%d", i)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := l.Hold(requester, url); err != nil {
					t.Errorf("Hold() error = %v", err)
					return
				}
				_ = l.Held(requester)
				if i%2 == 0 {
					if err := l.Release(requester, url); err != nil {
						t.Errorf("Release() error = %v", err)
					}
				}
			}()
		}
	}
	wg.Wait()

	for r := 0; r < 20; r++ {
		if got := l.Count(fmt.Sprintf("u%d", r)); got != 5 {
			t.Errorf("Count(u%d) = %d, want 5", r, got)
		}
	}
}
