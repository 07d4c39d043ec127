package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	kafka_config "carrent/pkg/kafka/config"
	"carrent/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("u1").
		WithValue(map[string]int{"price": 1000}).
		WithEventType("booking.confirmed").
		WithSource("carrent").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "u1", msg.Key)
	assert.JSONEq(t, `{"price":1000}`, string(msg.Value))
	assert.Equal(t, "booking.confirmed", msg.GetEventType())
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])

	var decoded map[string]int
	require.NoError(t, msg.DecodeValue(&decoded))
	assert.Equal(t, 1000, decoded["price"])
}

func TestMessageBuilder_EncodeError(t *testing.T) {
	_, err := NewMessage().WithKey("u1").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypeUnknown},
		{name: "explicit permanent", err: NewPermanentError("decode", errors.New("x")), want: ErrorTypePermanent},
		{name: "explicit transient", err: fmt.Errorf("wrap: %w", NewTransientError("queue full", nil)), want: ErrorTypeTransient},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorTypeTransient},
		{name: "network pattern", err: errors.New("dial tcp: Connection Refused"), want: ErrorTypeTransient},
		{name: "unknown", err: errors.New("weird"), want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("busy", nil)
	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("bad", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) Written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.written...)
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "requests", Offset: 1, Key: []byte("ok"), Value: []byte(`{}`)},
		{Topic: "requests", Offset: 2, Key: []byte("bad"), Value: []byte(`{}`)},
		{Topic: "requests", Offset: 3, Key: []byte("flaky"), Value: []byte(`{}`)},
	}}
	dlq := &fakeWriter{}

	var mu sync.Mutex
	calls := map[string]int{}
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		calls[msg.Key]++
		mu.Unlock()
		switch msg.Key {
		case "bad":
			return NewPermanentError("decode request", errors.New("invalid json"))
		case "flaky":
			return NewTransientError("pipeline busy", nil)
		}
		return nil
	}

	c := &Consumer{
		reader:       reader,
		dlqWriter:    dlq,
		topic:        "requests",
		groupID:      "carrent",
		maxRetries:   2,
		retryBackoff: time.Millisecond,
		handler:      handler,
		logger:       logger.Discard(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.Committed()) == 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, c.Close())

	mu.Lock()
	assert.Equal(t, map[string]int{"ok": 1, "bad": 1, "flaky": 3}, calls)
	mu.Unlock()

	written := dlq.Written()
	require.Len(t, written, 2)
	assert.Equal(t, "bad", string(written[0].Key))
	assert.Equal(t, "requests", header(written[0], HeaderOriginalTopic))
	assert.Contains(t, header(written[0], HeaderDLQError), "invalid json")
	assert.Equal(t, "flaky", string(written[1].Key))
	assert.Equal(t, "2", header(written[1], HeaderRetryCount))

	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerClosed)
}

func TestNewProducer_Validation(t *testing.T) {
	cfg := &kafka_config.Config{Brokers: []string{"localhost:9092"}}

	_, err := NewProducer(nil, "topic", nil)
	assert.Error(t, err)
	_, err = NewProducer(&kafka_config.Config{}, "topic", nil)
	assert.Error(t, err)
	_, err = NewProducer(cfg, "", nil)
	assert.Error(t, err)

	p, err := NewProducer(cfg, "results", nil)
	require.NoError(t, err)
	assert.Equal(t, "results", p.Topic())

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}
