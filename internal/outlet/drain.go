package outlet

import (
	"context"
	"fmt"

	"carrent/internal/handoff"
	"carrent/pkg/logger"
	"carrent/pkg/model"
)

const StageName = "outlet"

// Drain empties the pipeline's outbound queue into a Publisher.
type Drain struct {
	queue     *handoff.Queue
	publisher Publisher
	logger    *logger.Logger
}

func NewDrain(queue *handoff.Queue, publisher Publisher, log *logger.Logger) *Drain {
	if log == nil {
		log = logger.Discard()
	}
	return &Drain{
		queue:     queue,
		publisher: publisher,
		logger:    log,
	}
}

func (d *Drain) Work(ctx context.Context, worker int) error {
	pc, err := d.queue.Get(ctx)
	if err != nil {
		return err
	}

	result := model.NewBookingResult(pc)
	if err := d.publisher.Publish(ctx, result); err != nil {
		return fmt.Errorf("publish result of %s: %w", pc.ID, err)
	}

	d.logger.Debug("Booking result published",
		"worker", worker,
		"context_id", pc.ID,
		"requester_id", result.RequesterID,
		"status", result.Status,
	)
	return nil
}

func (d *Drain) Pool(workers int) *handoff.Pool {
	return handoff.NewPool(StageName, workers, d.Work, d.logger)
}
