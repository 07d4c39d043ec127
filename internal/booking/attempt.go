package booking

import (
	"sync/atomic"

	"carrent/pkg/model"

	"github.com/google/uuid"
)

type AttemptState int32

const (
	StateStarted AttemptState = iota
	StateHeldAwaitingConfirmation
	StateWon
	StateParkedLosing
	StateCancelled
	StateCompensated
	StateFinishedSuccess
	StateFinishedCancelled
	// StateFinishedFailed means the hold could not be taken; nothing to compensate.
	StateFinishedFailed
)

var attemptStateNames = map[AttemptState]string{
	StateStarted:                  "started",
	StateHeldAwaitingConfirmation: "held_awaiting_confirmation",
	StateWon:                      "won",
	StateParkedLosing:             "parked_losing",
	StateCancelled:                "cancelled",
	StateCompensated:              "compensated",
	StateFinishedSuccess:          "finished_success",
	StateFinishedCancelled:        "finished_cancelled",
	StateFinishedFailed:           "finished_failed",
}

func (s AttemptState) String() string {
	if name, ok := attemptStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s AttemptState) Terminal() bool {
	return s == StateFinishedSuccess || s == StateFinishedCancelled || s == StateFinishedFailed
}

// Attempt is one offer's entry in a booking race.
type Attempt struct {
	ID          string
	RequesterID string
	Offer       model.Offer

	state atomic.Int32
}

func NewAttempt(requesterID string, offer model.Offer) *Attempt {
	return &Attempt{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		Offer:       offer,
	}
}

func (a *Attempt) State() AttemptState {
	return AttemptState(a.state.Load())
}

func (a *Attempt) setState(s AttemptState) {
	a.state.Store(int32(s))
}
