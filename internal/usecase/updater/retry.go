package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig configures retry behavior for provider calls
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns the retry defaults used against price providers
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// policy builds a deterministic exponential schedule bounded by MaxRetries and ctx
func (c RetryConfig) policy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.BaseDelay
	exp.MaxInterval = c.MaxDelay
	exp.Multiplier = c.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}

// WithRetry executes fn with exponential backoff until it succeeds,
// returns a Permanent error, retries run out or ctx is done
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var permanent bool
	err := backoff.Retry(func() error {
		err := fn(ctx)
		permanent = IsPermanent(err)
		return err
	}, cfg.policy(ctx))

	switch {
	case err == nil, permanent:
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("retry aborted: %w", ctx.Err())
	default:
		return fmt.Errorf("max retries exceeded: %w", err)
	}
}
