package aggregator

import (
	"context"
	"fmt"

	"carrent/internal/handoff"
	"carrent/pkg/logger"
	"carrent/pkg/model"
	"carrent/pkg/stats"

	"golang.org/x/sync/semaphore"
)

const StageName = "aggregator"

// Stage moves contexts from in to out through the Aggregator. The pool-local
// limiter is held for a worker's whole cycle, from dequeue to enqueue.
type Stage struct {
	aggregator *Aggregator
	in         *handoff.Queue
	out        *handoff.Queue
	limiter    *semaphore.Weighted
	recorder   stats.Recorder
	logger     *logger.Logger
}

func NewStage(agg *Aggregator, in, out *handoff.Queue, poolLimit int, recorder stats.Recorder, log *logger.Logger) *Stage {
	if recorder == nil {
		recorder = stats.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Stage{
		aggregator: agg,
		in:         in,
		out:        out,
		limiter:    semaphore.NewWeighted(int64(poolLimit)),
		recorder:   recorder,
		logger:     log,
	}
}

func (s *Stage) Work(ctx context.Context, worker int) error {
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.limiter.Release(1)

	pc, err := s.in.Get(ctx)
	if err != nil {
		return err
	}

	offers, err := s.aggregator.Aggregate(ctx, pc.Sources)
	if err != nil {
		stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindDropped, RequesterID: pc.RequesterID()})
		return fmt.Errorf("aggregate context %s: %w", pc.ID, err)
	}
	pc.SetOffers(offers, model.StageAggregated)

	s.logger.Debug("Context aggregated",
		"context_id", pc.ID,
		"requester_id", pc.RequesterID(),
		"sources", len(pc.Sources),
		"offers", len(offers),
		"worker", worker,
	)
	stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindAggregated, RequesterID: pc.RequesterID()})

	if err := s.out.Put(ctx, pc); err != nil {
		stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindDropped, RequesterID: pc.RequesterID()})
		return fmt.Errorf("hand off context %s: %w", pc.ID, err)
	}
	return nil
}

func (s *Stage) Pool(workers int) *handoff.Pool {
	return handoff.NewPool(StageName, workers, s.Work, s.logger)
}
