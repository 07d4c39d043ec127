package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"carrent/pkg/kafka"
)

// Metrics counts kafka traffic for the ops stats endpoint.
type Metrics struct {
	published            atomic.Int64
	publishFailed        atomic.Int64
	publishDurationTotal atomic.Int64

	consumed             atomic.Int64
	consumeFailed        atomic.Int64
	consumeDurationTotal atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Producer() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.publishDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.publishFailed.Add(1)
		} else {
			m.published.Add(1)
		}
		return err
	}
}

func (m *Metrics) Consumer() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.consumeDurationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.consumeFailed.Add(1)
		} else {
			m.consumed.Add(1)
		}
		return err
	}
}

func (m *Metrics) AvgPublishDuration() time.Duration {
	n := m.published.Load() + m.publishFailed.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(m.publishDurationTotal.Load() / n)
}

func (m *Metrics) AvgConsumeDuration() time.Duration {
	n := m.consumed.Load() + m.consumeFailed.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(m.consumeDurationTotal.Load() / n)
}

func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"published":            m.published.Load(),
		"publish_failed":       m.publishFailed.Load(),
		"avg_publish_duration": m.AvgPublishDuration().String(),
		"consumed":             m.consumed.Load(),
		"consume_failed":       m.consumeFailed.Load(),
		"avg_consume_duration": m.AvgConsumeDuration().String(),
	}
}
