package model

import "time"

const (
	BookingStatusConfirmed   = "confirmed"
	BookingStatusUnavailable = "unavailable"
)

// BookingResult is the outbound view of a finished PipelineContext.
type BookingResult struct {
	ContextID   string    `json:"context_id"`
	RequesterID string    `json:"requester_id"`
	Status      string    `json:"status" validate:"required,oneof=confirmed unavailable"`
	Offer       *Offer    `json:"offer,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	Elapsed     string    `json:"elapsed"`
}

func NewBookingResult(pc *PipelineContext) *BookingResult {
	status := BookingStatusUnavailable
	if pc.Booked != nil {
		status = BookingStatusConfirmed
	}
	now := time.Now().UTC()
	return &BookingResult{
		ContextID:   pc.ID,
		RequesterID: pc.RequesterID(),
		Status:      status,
		Offer:       pc.Booked,
		Sources:     pc.Sources,
		CompletedAt: now,
		Elapsed:     now.Sub(pc.CreatedAt).String(),
	}
}
