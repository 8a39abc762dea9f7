package smbmount

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockNetError implements netError interface for testing.
type mockNetError struct {
	error
	temporary bool
	timeout   bool
}

func (e *mockNetError) Temporary() bool { return e.temporary }
func (e *mockNetError) Timeout() bool   { return e.timeout }

func fastRetryConfig(attempts int) *Config {
	return &Config{
		RetryPolicy: &RetryPolicy{
			MaxAttempts:  attempts,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     50 * time.Millisecond,
			Multiplier:   2.0,
		},
	}
}

func TestWithRetry_Success(t *testing.T) {
	callCount := 0
	err := withRetry(context.Background(), &Config{}, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("withRetry() error = %v, want nil", err)
	}
	if callCount != 1 {
		t.Errorf("operation called %d times, want 1", callCount)
	}
}

func TestWithRetry_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := withRetry(context.Background(), fastRetryConfig(3), func() error {
		callCount++
		if callCount < 3 {
			return &mockNetError{error: errors.New("temp error"), temporary: true}
		}
		return nil
	})

	if err != nil {
		t.Errorf("withRetry() error = %v, want nil", err)
	}
	if callCount != 3 {
		t.Errorf("operation called %d times, want 3", callCount)
	}
}

func TestWithRetry_MaxAttemptsExceeded(t *testing.T) {
	callCount := 0
	timeoutErr := &mockNetError{error: errors.New("timeout"), timeout: true}
	err := withRetry(context.Background(), fastRetryConfig(3), func() error {
		callCount++
		return timeoutErr
	})

	if !errors.Is(err, timeoutErr) {
		t.Errorf("withRetry() error = %v, want %v", err, timeoutErr)
	}
	if callCount != 3 {
		t.Errorf("operation called %d times, want 3", callCount)
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	callCount := 0
	permanent := errors.New("STATUS_LOGON_FAILURE")
	err := withRetry(context.Background(), fastRetryConfig(5), func() error {
		callCount++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("withRetry() error = %v, want %v", err, permanent)
	}
	if callCount != 1 {
		t.Errorf("operation called %d times, want 1", callCount)
	}
}

func TestWithRetry_DisabledRetry(t *testing.T) {
	callCount := 0
	err := withRetry(context.Background(), fastRetryConfig(1), func() error {
		callCount++
		return &mockNetError{error: errors.New("temp"), temporary: true}
	})

	if err == nil {
		t.Error("withRetry() error = nil, want error")
	}
	if callCount != 1 {
		t.Errorf("operation called %d times, want 1", callCount)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	err := withRetry(ctx, &Config{RetryPolicy: &RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
		Multiplier:   1,
	}}, func() error {
		callCount++
		cancel()
		return &mockNetError{error: errors.New("temp"), temporary: true}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("withRetry() error = %v, want context.Canceled", err)
	}
	if callCount != 1 {
		t.Errorf("operation called %d times, want 1", callCount)
	}
}

func TestWithRetry_NilConfigUsesDefault(t *testing.T) {
	callCount := 0
	err := withRetry(context.Background(), nil, func() error {
		callCount++
		return errors.New("permanent")
	})
	if err == nil {
		t.Error("withRetry() error = nil, want error")
	}
	if callCount != 1 {
		t.Errorf("operation called %d times, want 1", callCount)
	}
}

func TestWithRetry_LogsAttempts(t *testing.T) {
	logger := &recordingLogger{}
	config := fastRetryConfig(2)
	config.Logger = logger

	_ = withRetry(context.Background(), config, func() error {
		return &mockNetError{error: errors.New("temp"), temporary: true}
	})

	if n := len(logger.lines()); n != 1 {
		t.Errorf("logged %d lines, want 1", n)
	}
}
