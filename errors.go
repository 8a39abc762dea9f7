package smbmount

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress indicates the input is empty or does not follow the
	// smb://host/share grammar.
	ErrInvalidAddress = errors.New("invalid SMB address")

	// ErrConnectionFailed indicates a management session to the host could
	// not be established.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotFound indicates the session succeeded but no disk resource
	// matched the share path.
	ErrNotFound = errors.New("no matching disk resource")

	// ErrQueryFailed indicates a transport or query fault during enumeration.
	ErrQueryFailed = errors.New("query failed")

	// ErrMountFailed is the umbrella failure reported for any resolver or
	// mount step error.
	ErrMountFailed = errors.New("mount failed")

	// ErrCancelled indicates the caller aborted before completion.
	ErrCancelled = errors.New("cancelled")

	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedQuery indicates the transport cannot serve the requested
	// namespace, class or field.
	ErrUnsupportedQuery = errors.New("unsupported query")

	// ErrSessionClosed indicates the session has already been released.
	ErrSessionClosed = errors.New("session closed")
)

// AddressError records why a raw address was rejected.
type AddressError struct {
	Raw    string
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInvalidAddress, e.Raw, e.Reason)
}

func (e *AddressError) Unwrap() error {
	return ErrInvalidAddress
}

// ResolveError records a resolver failure, the step that failed and the
// host it was talking to. Kind is one of ErrConnectionFailed, ErrNotFound
// or ErrQueryFailed.
type ResolveError struct {
	Op   string
	Host string
	Kind error
	Err  error
}

func (e *ResolveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Host, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Host, e.Kind, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error kind.
func (e *ResolveError) Is(target error) bool {
	return target == e.Kind
}

// newResolveError builds a ResolveError. When parent has been cancelled the
// cause also matches ErrCancelled, so callers can tell an aborted call from
// a timeout.
func newResolveError(parent context.Context, op, host string, kind, cause error) error {
	if parent != nil && errors.Is(parent.Err(), context.Canceled) {
		if cause == nil {
			cause = ErrCancelled
		} else if !errors.Is(cause, ErrCancelled) {
			cause = fmt.Errorf("%w: %w", ErrCancelled, cause)
		}
	}
	return &ResolveError{
		Op:   op,
		Host: host,
		Kind: kind,
		Err:  cause,
	}
}

// netError interface for network errors.
type netError interface {
	Timeout() bool
	Temporary() bool
}

// isRetryable returns true if the error indicates a transient failure
// that might succeed if retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr netError
	if errors.As(err, &netErr) {
		if netErr.Temporary() || netErr.Timeout() {
			return true
		}
	}

	if errors.Is(err, ErrSessionClosed) {
		return true
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != nil && unwrapped != err {
		return isRetryable(unwrapped)
	}

	return false
}
