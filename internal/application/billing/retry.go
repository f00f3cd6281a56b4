package billing

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/shared"
)

// RetryConfig bounds how often a usage increment is retried on store contention
type RetryConfig struct {
	MaxAttempts    uint          // Total attempts including the first
	InitialBackoff time.Duration // Wait before the first retry, doubled each time
	MaxBackoff     time.Duration
	// OnRetry is called before each retry with the error that caused it
	OnRetry func(err error, wait time.Duration)
}

// DefaultRetryConfig returns default configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     200 * time.Millisecond,
	}
}

// IncrementWithRetry performs the atomic conditional increment, retrying only
// when the store reports transient contention (shared.ErrStoreBusy). Any
// other outcome, including NotFound and QuotaExceeded, is returned at once.
func IncrementWithRetry(ctx context.Context, repo billing.SubscriptionRepository, userID, limit int64, cfg RetryConfig) (int64, error) {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	if cfg.MaxBackoff > 0 {
		b.MaxInterval = cfg.MaxBackoff
	}
	b.Multiplier = 2

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.MaxAttempts),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			cfg.OnRetry(err, wait)
		}))
	}

	usage, err := backoff.Retry(ctx, func() (int64, error) {
		n, err := repo.IncrementUsage(ctx, userID, limit)
		if err != nil && !errors.Is(err, shared.ErrStoreBusy) {
			return 0, backoff.Permanent(err)
		}
		return n, err
	}, opts...)
	if err != nil {
		return 0, err
	}
	return usage, nil
}
