package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingerrors "carrent/internal/booking/errors"
	"carrent/internal/sources"
	"carrent/pkg/model"
	"carrent/pkg/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testConfirmLatency = 10 * time.Millisecond
	testCancelLatency  = 5 * time.Millisecond
)

type mockLedger struct {
	*MemoryLedger
	holdFunc func(requesterID, url string) error
}

func (m *mockLedger) Hold(requesterID, url string) error {
	if m.holdFunc != nil {
		if err := m.holdFunc(requesterID, url); err != nil {
			return err
		}
	}
	return m.MemoryLedger.Hold(requesterID, url)
}

func newTestArbiter(ledger Ledger, recorder stats.Recorder) *Arbiter {
	return NewArbiter(ledger, testConfirmLatency, testCancelLatency, recorder, nil)
}

func TestFlag_TryCloseOnce(t *testing.T) {
	flag := &Flag{}
	var wg sync.WaitGroup
	wins := make(chan struct{}, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if flag.TryClose() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
	assert.True(t, flag.Closed())
}

func TestArbitrate_ExactlyOneWinner(t *testing.T) {
	ledger := NewMemoryLedger()
	recorder := stats.NewMemoryRecorder()
	arbiter := newTestArbiter(ledger, recorder)
	offers := sources.Catalog("yandex")

	winner, err := arbiter.Arbitrate(context.Background(), "u1", offers)
	require.NoError(t, err)
	require.NotNil(t, winner)

	assert.Contains(t, offers, *winner)
	assert.Equal(t, []string{winner.URL}, ledger.Held("u1"))
	assert.Equal(t, int64(len(offers)-1), recorder.Count(stats.KindCompensated))
}

func TestArbitrate_ManyRequestersConcurrently(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := newTestArbiter(ledger, nil)
	offers := append(sources.Catalog("yandex"), sources.Catalog("citydrive")...)

	var wg sync.WaitGroup
	winners := make([]*model.Offer, 25)
	for i := range winners {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := arbiter.Arbitrate(context.Background(), fmt.Sprintf("u%d", i), offers)
			if err != nil {
				t.Errorf("Arbitrate() error = %v", err)
				return
			}
			winners[i] = w
		}()
	}
	wg.Wait()

	for i, w := range winners {
		requester := fmt.Sprintf("u%d", i)
		require.NotNil(t, w, requester)
		assert.Equal(t, []string{w.URL}, ledger.Held(requester), requester)
	}
	assert.Equal(t, len(winners), ledger.Requesters())
}

func TestArbitrate_CompensationCompleteBeforeReturn(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := NewArbiter(ledger, testConfirmLatency, 40*time.Millisecond, nil, nil)

	start := time.Now()
	winner, err := arbiter.Arbitrate(context.Background(), "u1", sources.Catalog("yandex"))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), testConfirmLatency+40*time.Millisecond,
		"arbiter must join the losers' compensation")
	assert.Equal(t, 1, ledger.Count("u1"))
	for _, url := range model.URLs(sources.Catalog("yandex")) {
		if url != winner.URL {
			assert.NotContains(t, ledger.Held("u1"), url)
		}
	}
}

func TestArbitrate_EmptyCandidates(t *testing.T) {
	ledger := NewMemoryLedger()
	recorder := stats.NewMemoryRecorder()
	arbiter := newTestArbiter(ledger, recorder)

	for _, offers := range [][]model.Offer{nil, {}} {
		winner, err := arbiter.Arbitrate(context.Background(), "u1", offers)
		assert.NoError(t, err)
		assert.Nil(t, winner)
	}
	assert.Equal(t, 0, ledger.Requesters())
	assert.Empty(t, recorder.Snapshot())
}

func TestArbitrate_SingleCandidate(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := newTestArbiter(ledger, nil)
	offer := sources.Catalog("yandex")[2]

	winner, err := arbiter.Arbitrate(context.Background(), "u1", []model.Offer{offer})
	require.NoError(t, err)
	assert.Equal(t, offer, *winner)
	assert.Equal(t, []string{offer.URL}, ledger.Held("u1"))
}

func TestArbitrate_DuplicateURLsKeepWinnerHeld(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := newTestArbiter(ledger, nil)
	offer := sources.Catalog("yandex")[0]

	winner, err := arbiter.Arbitrate(context.Background(), "u1", []model.Offer{offer, offer, offer})
	require.NoError(t, err)
	assert.Equal(t, offer, *winner)
	assert.Equal(t, []string{offer.URL}, ledger.Held("u1"))

	require.NoError(t, ledger.Release("u1", offer.URL))
	assert.Equal(t, 0, ledger.Count("u1"), "only the winner's hold should remain")
}

func TestArbitrate_AllHoldsFail(t *testing.T) {
	ledger := &mockLedger{
		MemoryLedger: NewMemoryLedger(),
		holdFunc: func(requesterID, url string) error {
			return errors.New("ledger unavailable")
		},
	}
	arbiter := newTestArbiter(ledger, nil)

	winner, err := arbiter.Arbitrate(context.Background(), "u1", sources.Catalog("yandex"))
	assert.Nil(t, winner)
	assert.ErrorIs(t, err, bookingerrors.ErrNoWinner)
	assert.Equal(t, 0, ledger.Requesters())
}

func TestArbitrate_SomeHoldsFail(t *testing.T) {
	offers := sources.Catalog("yandex")
	ledger := &mockLedger{
		MemoryLedger: NewMemoryLedger(),
		holdFunc: func(requesterID, url string) error {
			if url != offers[3].URL {
				return errors.New("already reserved elsewhere")
			}
			return nil
		},
	}
	arbiter := newTestArbiter(ledger, nil)

	winner, err := arbiter.Arbitrate(context.Background(), "u1", offers)
	require.NoError(t, err)
	assert.Equal(t, offers[3], *winner)
	assert.Equal(t, []string{offers[3].URL}, ledger.Held("u1"))
}

func TestArbitrate_ParentCancelledCompensatesEverything(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := NewArbiter(ledger, time.Second, testCancelLatency, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	winner, err := arbiter.Arbitrate(ctx, "u1", sources.Catalog("yandex"))
	assert.Nil(t, winner)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, ledger.Count("u1"))
}

func TestAttempt_Wins(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := newTestArbiter(ledger, nil)
	flag := &Flag{}
	at := NewAttempt("u1", sources.Catalog("yandex")[0])

	won, err := arbiter.Attempt(context.Background(), flag, at)
	require.NoError(t, err)
	assert.Equal(t, at.Offer, won)
	assert.Equal(t, StateFinishedSuccess, at.State())
	assert.True(t, flag.Closed())
	assert.Equal(t, []string{at.Offer.URL}, ledger.Held("u1"))
}

func TestAttempt_LoserParksUntilCancelled(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := newTestArbiter(ledger, nil)
	flag := &Flag{}
	require.True(t, flag.TryClose())

	at := NewAttempt("u1", sources.Catalog("yandex")[1])
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := arbiter.Attempt(ctx, flag, at)
		done <- err
	}()

	require.Eventually(t, func() bool { return at.State() == StateParkedLosing }, time.Second, time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("parked attempt returned on its own: %v", err)
	case <-time.After(3 * testConfirmLatency):
	}
	assert.Equal(t, []string{at.Offer.URL}, ledger.Held("u1"), "a parked loser still holds its offer")

	cancel()
	err := <-done
	assert.ErrorIs(t, err, bookingerrors.ErrAttemptCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFinishedCancelled, at.State())
	assert.Empty(t, ledger.Held("u1"))
}

func TestAttempt_CancelledBeforeConfirmationNeverWins(t *testing.T) {
	ledger := NewMemoryLedger()
	arbiter := NewArbiter(ledger, time.Second, testCancelLatency, nil, nil)
	flag := &Flag{}
	at := NewAttempt("u1", sources.Catalog("yandex")[4])

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := arbiter.Attempt(ctx, flag, at)
		done <- err
	}()

	require.Eventually(t, func() bool { return at.State() == StateHeldAwaitingConfirmation }, time.Second, time.Millisecond)
	assert.Equal(t, 1, ledger.Count("u1"))

	cancel()
	err := <-done

	assert.ErrorIs(t, err, bookingerrors.ErrAttemptCancelled)
	assert.False(t, flag.Closed(), "a cancelled attempt must never close the flag")
	assert.Equal(t, StateFinishedCancelled, at.State())
	assert.Equal(t, 0, ledger.Count("u1"))
}

func TestAttempt_HoldFailure(t *testing.T) {
	arbiter := newTestArbiter(NewMemoryLedger(), nil)
	at := NewAttempt("", sources.Catalog("yandex")[0])

	_, err := arbiter.Attempt(context.Background(), &Flag{}, at)
	assert.ErrorIs(t, err, bookingerrors.ErrInvalidHold)
	assert.Equal(t, StateFinishedFailed, at.State())
	assert.True(t, at.State().Terminal())
}

func TestAttemptState_String(t *testing.T) {
	assert.Equal(t, "parked_losing", StateParkedLosing.String())
	assert.Equal(t, "unknown", AttemptState(99).String())
	assert.False(t, StateCancelled.Terminal())
}
