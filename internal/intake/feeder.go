package intake

import (
	"context"
	"errors"
	"math"

	"carrent/internal/handoff"
	apperrors "carrent/pkg/errors"
	"carrent/pkg/logger"
	"carrent/pkg/model"
	"carrent/pkg/validation"

	"golang.org/x/time/rate"
)

// Feeder turns booking requests into pipeline contexts on the inbound queue,
// paced by a token bucket.
type Feeder struct {
	queue          *handoff.Queue
	limiter        *rate.Limiter
	defaultSources []string
	validator      *validation.Validator
	logger         *logger.Logger
}

// NewFeeder paces Submit to perSecond requests with the given burst.
// A non-positive perSecond disables pacing.
func NewFeeder(queue *handoff.Queue, perSecond float64, burst int, defaultSources []string, log *logger.Logger) *Feeder {
	if log == nil {
		log = logger.Discard()
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &Feeder{
		queue:          queue,
		limiter:        rate.NewLimiter(limit, burst),
		defaultSources: defaultSources,
		validator:      validation.New(),
		logger:         log,
	}
}

// Submit validates req and enqueues a new pipeline context for it. Errors are
// AppErrors: validation failures, context termination, or an unavailable
// pipeline once the inbound queue is closed.
func (f *Feeder) Submit(ctx context.Context, req BookingRequest) (*model.PipelineContext, error) {
	req.normalize(f.defaultSources)

	if err := f.validator.Struct(req); err != nil {
		var validationErrs validation.ValidationErrors
		if errors.As(err, &validationErrs) {
			return nil, apperrors.Validation("Invalid booking request", validationErrs.Details())
		}
		return nil, apperrors.InvalidInput(err.Error())
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.FromContext("Booking request was not admitted", err)
	}

	pc := model.NewPipelineContext(req.RequesterID, req.Sources)
	if err := f.queue.Put(ctx, pc); err != nil {
		if errors.Is(err, handoff.ErrQueueClosed) {
			return nil, apperrors.Unavailable("Booking pipeline")
		}
		return nil, apperrors.FromContext("Booking request was not enqueued", err)
	}

	f.logger.Debug("Booking request accepted",
		"context_id", pc.ID,
		"requester_id", req.RequesterID,
		"sources", len(req.Sources),
	)
	return pc, nil
}

// SubmitAll submits requests in order and stops at the first failure.
func (f *Feeder) SubmitAll(ctx context.Context, requests []BookingRequest) ([]*model.PipelineContext, error) {
	submitted := make([]*model.PipelineContext, 0, len(requests))
	for _, req := range requests {
		pc, err := f.Submit(ctx, req)
		if err != nil {
			return submitted, err
		}
		submitted = append(submitted, pc)
	}
	return submitted, nil
}
