package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StageCreated    = "created"
	StageAggregated = "aggregated"
	StageFiltered   = "filtered"
	StageBooked     = "booked"
)

// PipelineContext is the envelope one request travels in. Exactly one stage
// owns it at a time; ownership moves with the queue hand-off.
//
// The payload is split into typed fields. Sources is meaningful before
// aggregation, Offers after aggregation and filtering, Booked after arbitration.
type PipelineContext struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Stage     string    `json:"stage"`
	Sources   []string  `json:"sources,omitempty"`
	Offers    []Offer   `json:"offers,omitempty"`
	Booked    *Offer    `json:"booked,omitempty"`

	requesterID string
}

func NewPipelineContext(requesterID string, sources []string) *PipelineContext {
	return &PipelineContext{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Stage:       StageCreated,
		Sources:     sources,
		requesterID: requesterID,
	}
}

func (pc *PipelineContext) RequesterID() string {
	return pc.requesterID
}

func (pc *PipelineContext) SetOffers(offers []Offer, stage string) {
	pc.Offers = offers
	pc.Stage = stage
}

// SetBooked replaces the candidate list with the winner, or nothing.
func (pc *PipelineContext) SetBooked(offer *Offer) {
	pc.Booked = offer
	pc.Offers = nil
	pc.Stage = StageBooked
}
