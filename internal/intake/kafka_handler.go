package intake

import (
	"context"

	apperrors "carrent/pkg/errors"
	"carrent/pkg/kafka"
)

// HandleMessage feeds one booking request from Kafka. The message key is used
// as the requester id when the payload has none. Bad requests are permanent
// failures so the consumer dead-letters them instead of retrying.
func (f *Feeder) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var req BookingRequest
	if err := msg.DecodeValue(&req); err != nil {
		return kafka.NewPermanentError("decode booking request", err)
	}
	if req.RequesterID == "" {
		req.RequesterID = msg.Key
	}

	pc, err := f.Submit(ctx, req)
	if err != nil {
		appErr := apperrors.AsAppError(err)
		switch appErr.Code {
		case apperrors.CodeValidation, apperrors.CodeInvalidInput:
			return kafka.NewPermanentError("invalid booking request", appErr)
		default:
			return kafka.NewTransientError("submit booking request", appErr)
		}
	}

	f.logger.Debug("Booking request consumed",
		"context_id", pc.ID,
		"event_id", msg.GetEventID(),
		"offset", msg.Offset,
	)
	return nil
}
