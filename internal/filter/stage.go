package filter

import (
	"context"
	"fmt"

	"carrent/internal/handoff"
	"carrent/pkg/logger"
	"carrent/pkg/model"
	"carrent/pkg/stats"
)

const StageName = "filter"

type Stage struct {
	criteria Criteria
	in       *handoff.Queue
	out      *handoff.Queue
	recorder stats.Recorder
	logger   *logger.Logger
}

func NewStage(criteria Criteria, in, out *handoff.Queue, recorder stats.Recorder, log *logger.Logger) *Stage {
	if recorder == nil {
		recorder = stats.Nop()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Stage{
		criteria: criteria,
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

	before := len(pc.Offers)
	pc.SetOffers(s.criteria.Apply(pc.Offers), model.StageFiltered)

	s.logger.Debug("Context filtered",
		"context_id", pc.ID,
		"requester_id", pc.RequesterID(),
		"criteria", s.criteria.String(),
		"offers_in", before,
		"offers_out", len(pc.Offers),
		"worker", worker,
	)
	stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindFiltered, RequesterID: pc.RequesterID()})

	if err := s.out.Put(ctx, pc); err != nil {
		stats.Track(ctx, s.recorder, s.logger, stats.Event{Kind: stats.KindDropped, RequesterID: pc.RequesterID()})
		return fmt.Errorf("hand off context %s: %w", pc.ID, err)
	}
	return nil
}

func (s *Stage) Pool(workers int) *handoff.Pool {
	return handoff.NewPool(StageName, workers, s.Work, s.logger)
}
