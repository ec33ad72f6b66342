package repeat

import (
	"context"
	"time"
)

// Options control a retry loop.
type Options struct {
	Attempts int
	Delay    time.Duration
	// Backoff multiplies Delay after every failed attempt. Values below 1 keep the delay constant.
	Backoff float64
	// RetryIf decides whether an error is worth another attempt. Nil retries every error.
	RetryIf func(error) bool
}

// Repeat calls f up to attempts times, sleeping delay between failures.
func Repeat(f func() error, attempts int, delay time.Duration) error {
	return Do(context.Background(), Options{Attempts: attempts, Delay: delay}, func(context.Context) error {
		return f()
	})
}

// Do runs f until it succeeds, the error is not retryable, attempts run out or ctx is done.
// The last error from f is returned.
func Do(ctx context.Context, opts Options, f func(ctx context.Context) error) error {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	delay := opts.Delay

	var err error
	for i := 0; i < opts.Attempts; i++ {
		if err = f(ctx); err == nil {
			return nil
		}
		if opts.RetryIf != nil && !opts.RetryIf(err) {
			return err
		}
		if i == opts.Attempts-1 {
			break
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
			if opts.Backoff > 1 {
				delay = time.Duration(float64(delay) * opts.Backoff)
			}
		} else if ctx.Err() != nil {
			return err
		}
	}

	return err
}
