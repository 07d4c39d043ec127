package outlet

import (
	"context"
	"errors"

	"carrent/pkg/kafka"
	"carrent/pkg/logger"
	"carrent/pkg/model"
)

const (
	EventBookingConfirmed   = "booking.confirmed"
	EventBookingUnavailable = "booking.unavailable"

	eventSource   = "carrent"
	schemaVersion = "1"
)

// Publisher delivers a finished booking to whoever asked for it.
type Publisher interface {
	Publish(ctx context.Context, result *model.BookingResult) error
}

type LogPublisher struct {
	logger *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Discard()
	}
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) Publish(_ context.Context, result *model.BookingResult) error {
	attrs := []any{
		"context_id", result.ContextID,
		"requester_id", result.RequesterID,
		"status", result.Status,
		"elapsed", result.Elapsed,
	}
	if result.Offer != nil {
		attrs = append(attrs, "offer_url", result.Offer.URL, "price", result.Offer.Price, "brand", result.Offer.Brand)
	}
	p.logger.Info("Booking finished", attrs...)
	return nil
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher emits each result as a JSON event keyed by requester id, so
// all results of one requester land on the same partition.
type KafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer messagePublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, result *model.BookingResult) error {
	msg, err := kafka.NewMessage().
		WithKey(result.RequesterID).
		WithValue(result).
		WithEventID("").
		WithEventType(EventType(result)).
		WithCorrelationID(result.ContextID).
		WithSchemaVersion(schemaVersion).
		WithSource(eventSource).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func EventType(result *model.BookingResult) string {
	if result.Status == model.BookingStatusConfirmed {
		return EventBookingConfirmed
	}
	return EventBookingUnavailable
}

type multiPublisher []Publisher

// Multi publishes to every publisher and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, result *model.BookingResult) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
