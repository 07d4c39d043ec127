package aggregator

import (
	"context"

	"carrent/internal/sources"
	"carrent/pkg/logger"
	"carrent/pkg/model"
	"carrent/pkg/stats"

	"golang.org/x/sync/errgroup"
)

type Aggregator struct {
	client   sources.Client
	ceiling  *SoftCeiling
	recorder stats.Recorder
	logger   *logger.Logger
}

func New(client sources.Client, ceiling *SoftCeiling, recorder stats.Recorder, log *logger.Logger) *Aggregator {
	if recorder == nil {
		recorder = stats.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Aggregator{
		client:   client,
		ceiling:  ceiling,
		recorder: recorder,
		logger:   log,
	}
}

// Aggregate fetches every source concurrently and concatenates the offers in
// source order, then catalog order. A failing source contributes no offers;
// only cancellation of ctx fails the whole call.
func (a *Aggregator) Aggregate(ctx context.Context, sourceIDs []string) ([]model.Offer, error) {
	release, throttled, err := a.ceiling.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if throttled {
		a.logger.Debug("Aggregation ceiling reached, cooled down before fan-out",
			"ceiling", a.ceiling.Max(),
		)
		stats.Track(ctx, a.recorder, a.logger, stats.Event{Kind: stats.KindCooldown})
	}

	results := make([][]model.Offer, len(sourceIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, sourceID := range sourceIDs {
		i, sourceID := i, sourceID
		g.Go(func() error {
			offers, err := a.client.Fetch(gctx, sourceID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Warn("Source fetch failed, continuing without it",
					"source", sourceID,
					"error", err,
				)
				stats.Track(ctx, a.recorder, a.logger, stats.Event{
					Kind:   stats.KindSourceFailed,
					Source: sourceID,
				})
				return nil
			}
			results[i] = offers
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, offers := range results {
		total += len(offers)
	}
	out := make([]model.Offer, 0, total)
	for _, offers := range results {
		out = append(out, offers...)
	}
	return out, nil
}
