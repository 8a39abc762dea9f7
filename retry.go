package smbmount

import (
	"context"
	"time"
)

// RetryPolicy defines retry behavior for opening management sessions.
type RetryPolicy struct {
	MaxAttempts  int           `yaml:"max_attempts"`  // Maximum number of attempts (default: 3)
	InitialDelay time.Duration `yaml:"initial_delay"` // Initial delay between retries (default: 100ms)
	MaxDelay     time.Duration `yaml:"max_delay"`     // Maximum delay between retries (default: 5s)
	Multiplier   float64       `yaml:"multiplier"`    // Backoff multiplier (default: 2.0)
}

// defaultRetryPolicy is the default retry policy.
var defaultRetryPolicy = &RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
}

// withRetry executes an operation with retry logic using exponential backoff.
// Only errors accepted by isRetryable are retried.
func withRetry(ctx context.Context, config *Config, operation func() error) error {
	var policy *RetryPolicy
	if config != nil {
		policy = config.RetryPolicy
	}
	if policy == nil {
		policy = defaultRetryPolicy
	}

	// If MaxAttempts is 0 or 1, don't retry
	if policy.MaxAttempts <= 1 {
		return operation()
	}

	multiplier := policy.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	var lastErr error
	delay := policy.InitialDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt == policy.MaxAttempts {
			break
		}

		config.logf("Session open failed (attempt %d/%d), retrying in %v: %v",
			attempt, policy.MaxAttempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * multiplier)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return lastErr
}
