package pipeline

import (
	"fmt"
	"time"

	"carrent/internal/filter"
)

// Settings are the externally supplied constants of one pipeline.
type Settings struct {
	AggregatorWorkers   int
	AggregatorPoolLimit int
	AggregationCeiling  int
	AggregationCooldown time.Duration

	FilterWorkers int
	Criteria      filter.Criteria

	BookingWorkers        int
	BookingConfirmLatency time.Duration
	BookingCancelLatency  time.Duration

	// QueueCapacity bounds every internal hand-off queue; 0 is unbounded.
	QueueCapacity int
}

func DefaultSettings() Settings {
	return Settings{
		AggregatorWorkers:     10,
		AggregatorPoolLimit:   5,
		AggregationCeiling:    5,
		AggregationCooldown:   10 * time.Second,
		FilterWorkers:         10,
		BookingWorkers:        10,
		BookingConfirmLatency: time.Second,
		BookingCancelLatency:  time.Second,
	}
}

func (s Settings) Validate() error {
	var errors []string

	if s.AggregatorWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("AggregatorWorkers must be positive, got: %d", s.AggregatorWorkers))
	}
	if s.AggregatorPoolLimit <= 0 {
		errors = append(errors, fmt.Sprintf("AggregatorPoolLimit must be positive, got: %d", s.AggregatorPoolLimit))
	}
	if s.AggregationCeiling <= 0 {
		errors = append(errors, fmt.Sprintf("AggregationCeiling must be positive, got: %d", s.AggregationCeiling))
	}
	if s.AggregationCooldown < 0 {
		errors = append(errors, fmt.Sprintf("AggregationCooldown cannot be negative, got: %s", s.AggregationCooldown))
	}
	if s.FilterWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("FilterWorkers must be positive, got: %d", s.FilterWorkers))
	}
	if s.BookingWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("BookingWorkers must be positive, got: %d", s.BookingWorkers))
	}
	if s.BookingConfirmLatency < 0 {
		errors = append(errors, fmt.Sprintf("BookingConfirmLatency cannot be negative, got: %s", s.BookingConfirmLatency))
	}
	if s.BookingCancelLatency < 0 {
		errors = append(errors, fmt.Sprintf("BookingCancelLatency cannot be negative, got: %s", s.BookingCancelLatency))
	}
	if s.QueueCapacity < 0 {
		errors = append(errors, fmt.Sprintf("QueueCapacity cannot be negative, got: %d", s.QueueCapacity))
	}
	if s.Criteria.MaxPrice != nil && *s.Criteria.MaxPrice < 0 {
		errors = append(errors, fmt.Sprintf("Criteria.MaxPrice cannot be negative, got: %d", *s.Criteria.MaxPrice))
	}

	if len(errors) > 0 {
		errMsg := "Pipeline settings validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
