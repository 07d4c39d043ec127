package handoff

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"carrent/pkg/logger"
)

// Worker runs one iteration of a stage loop. A returned error is logged and
// the loop continues; ErrQueueClosed or a cancelled context ends the worker.
type Worker func(ctx context.Context, id int) error

// Pool runs a fixed number of identical workers until Stop.
type Pool struct {
	name   string
	size   int
	work   Worker
	logger *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
	stopped bool
}

func NewPool(name string, size int, work Worker, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.Discard()
	}
	return &Pool{
		name:   name,
		size:   size,
		work:   work,
		logger: log,
	}
}

func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.size <= 0 {
		return fmt.Errorf("%s: %w", p.name, ErrInvalidPoolSize)
	}
	if p.stopped {
		return ErrPoolStopped
	}
	if p.cancel != nil {
		return ErrPoolRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running.Store(true)

	p.wg.Add(p.size)
	for id := 0; id < p.size; id++ {
		go p.loop(ctx, id)
	}

	go func() {
		p.wg.Wait()
		p.running.Store(false)
	}()

	p.logger.Info("Worker pool started",
		"pool", p.name,
		"workers", p.size,
	)
	return nil
}

// Stop cancels every worker and waits for them to return. Safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	alreadyStopped := p.stopped
	p.stopped = true
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.running.Store(false)

	if cancel != nil && !alreadyStopped {
		p.logger.Info("Worker pool stopped", "pool", p.name)
	}
}

func (p *Pool) Running() bool {
	return p.running.Load()
}

func (p *Pool) Name() string {
	return p.name
}

func (p *Pool) loop(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		err := p.runOnce(ctx, id)
		if err == nil {
			continue
		}
		if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
			p.logger.Debug("Worker exiting",
				"pool", p.name,
				"worker", id,
				"reason", err,
			)
			return
		}
		p.logger.Warn("Worker iteration failed",
			"pool", p.name,
			"worker", id,
			"error", err,
		)
	}
}

func (p *Pool) runOnce(ctx context.Context, id int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				"pool", p.name,
				"worker", id,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("worker %d panicked: %v", id, r)
		}
	}()
	return p.work(ctx, id)
}
