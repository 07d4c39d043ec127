package handoff

import (
	"context"
	"sync"

	"carrent/pkg/model"
)

// Queue is the FIFO hand-off between two pipeline stages. A capacity of 0
// makes it unbounded; otherwise Put suspends while the queue is full.
//
// After Close, Put fails with ErrQueueClosed and Get drains what is left
// before failing the same way.
type Queue struct {
	mu       sync.Mutex
	items    []*model.PipelineContext
	capacity int
	closed   bool
	changed  chan struct{}
}

func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		capacity: capacity,
		changed:  make(chan struct{}),
	}
}

func (q *Queue) Put(ctx context.Context, pc *model.PipelineContext) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, pc)
			q.signalLocked()
			q.mu.Unlock()
			return nil
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
}

func (q *Queue) Get(ctx context.Context) (*model.PipelineContext, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			pc := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.signalLocked()
			q.mu.Unlock()
			return pc, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		wait := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Cap() int {
	return q.capacity
}

func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.signalLocked()
}

// signalLocked wakes every waiter; each one re-checks the state under the lock.
func (q *Queue) signalLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}
