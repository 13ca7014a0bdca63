package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do executes fn with exponential back-off retry logic. It gives up after
// MaxAttempts or as soon as ctx is done; the returned error carries every
// attempt's failure.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var errs *multierror.Error
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		errs = multierror.Append(errs, fmt.Errorf("attempt %d: %w", attempt, err))

		if attempt == attempts {
			break
		}

		if r.Logger != nil {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
				operationName, attempt, attempts, err, delay)
		}

		select {
		case <-ctx.Done():
			errs = multierror.Append(errs, ctx.Err())
			return fmt.Errorf("%s aborted after %d attempts: %w", operationName, attempt, errs.ErrorOrNil())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, errs.ErrorOrNil())
}
