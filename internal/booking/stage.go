package booking

import (
	"context"
	"errors"
	"fmt"

	bookingerrors "carrent/internal/booking/errors"
	"carrent/internal/handoff"
	"carrent/pkg/logger"
	"carrent/pkg/stats"
)

const StageName = "booking"

type Stage struct {
	arbiter  *Arbiter
	in       *handoff.Queue
	out      *handoff.Queue
	recorder stats.Recorder
	logger   *logger.Logger
}

func NewStage(arbiter *Arbiter, in, out *handoff.Queue, recorder stats.Recorder, log *logger.Logger) *Stage {
	if recorder == nil {
		recorder = stats.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Stage{
		arbiter:  arbiter,
		in:       in,
		out:      out,
		recorder: recorder,
		logger:   log,
	}
}

func (s *Stage) Work(ctx context.Context, worker int) error {
	pc, err := s.in.Get(ctx)
	if err != nil {
		return err
	}

	candidates := len(pc.Offers)
	winner, err := s.arbiter.Arbitrate(ctx, pc.RequesterID(), pc.Offers)
	switch {
	case errors.Is(err, bookingerrors.ErrNoWinner):
		s.logger.Warn("No booking attempt could hold its offer",
			"context_id", pc.ID,
			"requester_id", pc.RequesterID(),
			"error", err,
		)
	case err != nil:
		stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindDropped, RequesterID: pc.RequesterID()})
		return fmt.Errorf("arbitrate context %s: %w", pc.ID, err)
	}
	pc.SetBooked(winner)

	kind := stats.KindBooked
	if winner == nil {
		kind = stats.KindNoCandidates
	}
	stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: kind, RequesterID: pc.RequesterID()})

	s.logger.Debug("Context arbitrated",
		"context_id", pc.ID,
		"requester_id", pc.RequesterID(),
		"candidates", candidates,
		"booked", winner != nil,
		"worker", worker,
	)

	if err := s.out.Put(ctx, pc); err != nil {
		stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindDropped, RequesterID: pc.RequesterID()})
		return fmt.Errorf("hand off context %s: %w", pc.ID, err)
	}
	return nil
}

func (s *Stage) Pool(workers int) *handoff.Pool {
	return handoff.NewPool(StageName, workers, s.Work, s.logger)
}
