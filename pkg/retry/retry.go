// Package retry provides the exponential backoff configuration used for
// provider calls, built on backoff/v4.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config defines bounded retry with exponential backoff.
type Config struct {
	MaxAttempts  int           // total attempts, including the first
	InitialDelay time.Duration // delay before the second attempt
	Multiplier   float64       // delay growth factor per attempt
}

// DefaultConfig matches the turn execution policy: 3 attempts total with
// delays of 2s then 4s between them.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2.0,
	}
}

// NewExponentialBackOff creates a deterministic backoff.ExponentialBackOff
// from the config. Randomization is disabled so delays double exactly.
func (c Config) NewExponentialBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour // attempts are bounded, never clamp the doubling
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do executes operation with exponential backoff, honouring ctx for
// cancellation of both the operation and the inter-attempt sleeps.
// Returning backoff.Permanent(err) from operation stops retrying
// immediately. notify, if non-nil, is called before each sleep.
func (c Config) Do(ctx context.Context, operation func() error, notify func(err error, next time.Duration)) error {
	maxRetries := c.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(c.NewExponentialBackOff(), uint64(maxRetries)),
		ctx,
	)

	if notify == nil {
		return backoff.Retry(operation, b)
	}
	return backoff.RetryNotify(operation, b, notify)
}
