package pipeline

import (
	"context"
	"errors"
	"sync"

	"carrent/internal/aggregator"
	"carrent/internal/booking"
	"carrent/internal/filter"
	"carrent/internal/handoff"
	"carrent/internal/sources"
	"carrent/pkg/logger"
	"carrent/pkg/stats"
)

var ErrMissingDependency = errors.New("pipeline dependency is missing")

// Deps are the collaborators a pipeline is built from.
type Deps struct {
	Sources  sources.Client
	Ledger   booking.Ledger
	Recorder stats.Recorder
	Logger   *logger.Logger
}

// Pipeline wires aggregator, filter and booking stages with hand-off queues:
//
//	inbound -> aggregator -> aggregated -> filter -> filtered -> booking -> outbound
type Pipeline struct {
	inbound    *handoff.Queue
	aggregated *handoff.Queue
	filtered   *handoff.Queue
	outbound   *handoff.Queue

	ceiling *aggregator.SoftCeiling
	ledger  booking.Ledger
	pools   []*handoff.Pool
	logger  *logger.Logger

	stopOnce sync.Once
}

// New builds a pipeline reading from inbound. A nil inbound gets a fresh queue
// with the configured capacity.
func New(inbound *handoff.Queue, settings Settings, deps Deps) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if deps.Sources == nil || deps.Ledger == nil {
		return nil, ErrMissingDependency
	}
	if deps.Recorder == nil {
		deps.Recorder = stats.Nop()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if inbound == nil {
		inbound = handoff.NewQueue(settings.QueueCapacity)
	}

	p := &Pipeline{
		inbound:    inbound,
		aggregated: handoff.NewQueue(settings.QueueCapacity),
		filtered:   handoff.NewQueue(settings.QueueCapacity),
		outbound:   handoff.NewQueue(settings.QueueCapacity),
		ceiling:    aggregator.NewSoftCeiling(settings.AggregationCeiling, settings.AggregationCooldown),
		ledger:     deps.Ledger,
		logger:     deps.Logger,
	}

	aggLog := deps.Logger.ForStage(aggregator.StageName)
	agg := aggregator.New(deps.Sources, p.ceiling, deps.Recorder, aggLog)
	aggStage := aggregator.NewStage(agg, p.inbound, p.aggregated, settings.AggregatorPoolLimit, deps.Recorder, aggLog)

	filterStage := filter.NewStage(settings.Criteria, p.aggregated, p.filtered, deps.Recorder, deps.Logger.ForStage(filter.StageName))

	bookLog := deps.Logger.ForStage(booking.StageName)
	arbiter := booking.NewArbiter(deps.Ledger, settings.BookingConfirmLatency, settings.BookingCancelLatency, deps.Recorder, bookLog)
	bookStage := booking.NewStage(arbiter, p.filtered, p.outbound, deps.Recorder, bookLog)

	p.pools = []*handoff.Pool{
		aggStage.Pool(settings.AggregatorWorkers),
		filterStage.Pool(settings.FilterWorkers),
		bookStage.Pool(settings.BookingWorkers),
	}
	return p, nil
}

// Run builds and starts a pipeline.
func Run(ctx context.Context, inbound *handoff.Queue, settings Settings, deps Deps) (*Pipeline, error) {
	p, err := New(inbound, settings, deps)
	if err != nil {
		return nil, err
	}
	if err := p.Start(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) Start(ctx context.Context) error {
	for i, pool := range p.pools {
		if err := pool.Start(ctx); err != nil {
			for _, started := range p.pools[:i] {
				started.Stop()
			}
			return err
		}
	}
	p.logger.Info("Pipeline started",
		"inbound_capacity", p.inbound.Cap(),
		"aggregation_ceiling", p.ceiling.Max(),
	)
	return nil
}

// Stop halts every stage, upstream first, then closes the internal and
// outbound queues so readers of Outbound see ErrQueueClosed once drained.
// The inbound queue belongs to the caller and is left open.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		for _, pool := range p.pools {
			pool.Stop()
		}
		p.aggregated.Close()
		p.filtered.Close()
		p.outbound.Close()
		p.logger.Info("Pipeline stopped")
	})
}

func (p *Pipeline) Inbound() *handoff.Queue {
	return p.inbound
}

func (p *Pipeline) Outbound() *handoff.Queue {
	return p.outbound
}

func (p *Pipeline) Ledger() booking.Ledger {
	return p.ledger
}

// Running reports whether every stage pool is running.
func (p *Pipeline) Running() bool {
	for _, pool := range p.pools {
		if !pool.Running() {
			return false
		}
	}
	return true
}

func (p *Pipeline) QueueDepths() map[string]int {
	return map[string]int{
		"inbound":    p.inbound.Len(),
		"aggregated": p.aggregated.Len(),
		"filtered":   p.filtered.Len(),
		"outbound":   p.outbound.Len(),
	}
}

func (p *Pipeline) InFlightAggregations() int64 {
	return p.ceiling.InFlight()
}
