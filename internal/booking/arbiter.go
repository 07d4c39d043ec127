package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingerrors "carrent/internal/booking/errors"
	"carrent/pkg/logger"
	"carrent/pkg/model"
	"carrent/pkg/stats"
)

// Arbiter races one booking attempt per candidate offer and keeps exactly
// one winner. Losing attempts release their own hold before Arbitrate returns.
type Arbiter struct {
	ledger         Ledger
	confirmLatency time.Duration
	cancelLatency  time.Duration
	recorder       stats.Recorder
	logger         *logger.Logger
}

func NewArbiter(ledger Ledger, confirmLatency, cancelLatency time.Duration, recorder stats.Recorder, log *logger.Logger) *Arbiter {
	if recorder == nil {
		recorder = stats.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Arbiter{
		ledger:         ledger,
		confirmLatency: confirmLatency,
		cancelLatency:  cancelLatency,
		recorder:       recorder,
		logger:         log,
	}
}

func (a *Arbiter) Ledger() Ledger {
	return a.ledger
}

type outcome struct {
	attempt *Attempt
	offer   model.Offer
	err     error
}

// Arbitrate returns the winning offer, or nil when offers is empty.
// If every attempt fails to take its hold the error wraps ErrNoWinner;
// if ctx ends first every attempt is compensated and ctx's error is returned.
func (a *Arbiter) Arbitrate(ctx context.Context, requesterID string, offers []model.Offer) (*model.Offer, error) {
	if len(offers) == 0 {
		return nil, nil
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	flag := &Flag{}
	outcomes := make(chan outcome, len(offers))

	var wg sync.WaitGroup
	for _, offer := range offers {
		at := NewAttempt(requesterID, offer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := a.Attempt(raceCtx, flag, at)
			outcomes <- outcome{attempt: at, offer: won, err: err}
		}()
	}

	var (
		winner  *model.Offer
		failed  []error
		pending = len(offers)
	)
	for winner == nil && pending > 0 {
		out := <-outcomes
		pending--
		if out.err == nil {
			w := out.offer
			winner = &w
			break
		}
		if !errors.Is(out.err, bookingerrors.ErrAttemptCancelled) {
			failed = append(failed, out.err)
		}
	}

	// Losers are parked or still confirming; cancel them and wait for their compensation.
	cancel()
	wg.Wait()
	close(outcomes)

	compensated := 0
	for out := range outcomes {
		if errors.Is(out.err, bookingerrors.ErrAttemptCancelled) {
			compensated++
		}
	}
	if compensated > 0 {
		stats.Track(ctx, a.recorder, a.logger, stats.Event{
			Kind:        stats.KindCompensated,
			RequesterID: requesterID,
			Count:       int64(compensated),
		})
	}

	switch {
	case winner != nil:
		a.logger.Debug("Booking race settled",
			"requester_id", requesterID,
			"winner", winner.URL,
			"candidates", len(offers),
			"compensated", compensated,
		)
		return winner, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, fmt.Errorf("%w: %d of %d attempts failed: %w",
			bookingerrors.ErrNoWinner, len(failed), len(offers), errors.Join(failed...))
	}
}

// Attempt holds the offer, waits out the confirmation latency and then tries
// to close flag. A loser parks until ctx is cancelled. Once cancelled, the
// attempt releases its hold before returning an error wrapping
// ErrAttemptCancelled.
func (a *Arbiter) Attempt(ctx context.Context, flag *Flag, at *Attempt) (model.Offer, error) {
	at.setState(StateStarted)

	if err := a.ledger.Hold(at.RequesterID, at.Offer.URL); err != nil {
		at.setState(StateFinishedFailed)
		return model.Offer{}, fmt.Errorf("hold %s: %w", at.Offer.URL, err)
	}
	at.setState(StateHeldAwaitingConfirmation)

	if err := sleep(ctx, a.confirmLatency); err != nil {
		return model.Offer{}, a.compensate(ctx, at)
	}
	if ctx.Err() != nil {
		return model.Offer{}, a.compensate(ctx, at)
	}

	if flag.TryClose() {
		at.setState(StateWon)
		at.setState(StateFinishedSuccess)
		return at.Offer, nil
	}

	at.setState(StateParkedLosing)
	<-ctx.Done()
	return model.Offer{}, a.compensate(ctx, at)
}

// compensate runs detached from ctx so that the release always completes.
func (a *Arbiter) compensate(ctx context.Context, at *Attempt) error {
	cause := ctx.Err()
	at.setState(StateCancelled)

	_ = sleep(context.WithoutCancel(ctx), a.cancelLatency)

	if err := a.ledger.Release(at.RequesterID, at.Offer.URL); err != nil {
		a.logger.Warn("Failed to release hold during compensation",
			"requester_id", at.RequesterID,
			"url", at.Offer.URL,
			"attempt_id", at.ID,
			"error", err,
		)
	}
	at.setState(StateCompensated)
	at.setState(StateFinishedCancelled)

	return fmt.Errorf("attempt %s for %s: %w: %w", at.ID, at.Offer.URL, bookingerrors.ErrAttemptCancelled, cause)
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
