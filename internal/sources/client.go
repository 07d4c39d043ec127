package sources

import (
	"context"
	"fmt"
	"time"

	sourceerrors "carrent/internal/sources/errors"
	"carrent/pkg/model"
)

// Client fetches the current offers of one rental source.
type Client interface {
	Fetch(ctx context.Context, sourceID string) ([]model.Offer, error)
}

type SimulatedClient struct {
	latency     time.Duration
	unavailable map[string]struct{}
}

type Option func(*SimulatedClient)

// WithUnavailable makes fetches for the given sources fail with ErrSourceUnavailable.
func WithUnavailable(sourceIDs ...string) Option {
	return func(c *SimulatedClient) {
		for _, id := range sourceIDs {
			c.unavailable[id] = struct{}{}
		}
	}
}

func NewSimulatedClient(latency time.Duration, opts ...Option) *SimulatedClient {
	c := &SimulatedClient{
		latency:     latency,
		unavailable: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SimulatedClient) Fetch(ctx context.Context, sourceID string) ([]model.Offer, error) {
	if sourceID == "" {
		return nil, sourceerrors.ErrUnknownSource
	}

	timer := time.NewTimer(c.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if _, down := c.unavailable[sourceID]; down {
		return nil, fmt.Errorf("%s: %w", sourceID, sourceerrors.ErrSourceUnavailable)
	}
	return Catalog(sourceID), nil
}
