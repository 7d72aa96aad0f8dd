package helpers

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

// WithRetry runs fn up to retries times, waiting delay multiplied by the
// attempt number between failures (1x, 2x, ...). Every error is treated as
// retryable. After the last attempt fails it returns a terminal error
// wrapping the last failure.
func WithRetry(ctx context.Context, fn func() error, retries int, delay time.Duration) error {
	if retries <= 0 {
		retries = DefaultRetries
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		log.Printf("Retry %d failed: %v", attempt, lastErr)

		if attempt < retries {
			if err := Sleep(ctx, delay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("max retries reached: %w", lastErr)
}

// Sleep pauses for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
