package smbmount

import (
	"fmt"
	"time"
)

// Status is the terminal status of a mount invocation.
type Status int

const (
	StatusFailed Status = iota
	StatusMounted
)

func (s Status) String() string {
	switch s {
	case StatusMounted:
		return "mounted"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reason is the caller-facing failure kind of a failed outcome.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInvalidAddress
	ReasonMountFailed
	ReasonCancelled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInvalidAddress:
		return "invalid_address"
	case ReasonMountFailed:
		return "mount_failed"
	case ReasonCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Err returns the sentinel error for the reason.
func (r Reason) Err() error {
	switch r {
	case ReasonInvalidAddress:
		return ErrInvalidAddress
	case ReasonMountFailed:
		return ErrMountFailed
	case ReasonCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Outcome is the single result of a mount invocation: either Mounted with an
// identifier or Failed with a reason.
type Outcome struct {
	ID         string        // Invocation correlation id
	Raw        string        // Input as submitted, trimmed
	Address    Address       // Zero when validation failed
	Status     Status        // Mounted or Failed
	Identifier string        // Mount identifier, set when Mounted
	Reason     Reason        // Failure kind, set when Failed
	Err        error         // Underlying error chain, set when Failed
	Duration   time.Duration // Wall time of the invocation
}

// Mounted reports whether the outcome is a success.
func (o Outcome) Mounted() bool {
	return o.Status == StatusMounted
}

// Target returns the address string for display: the canonical address when
// validation passed, the raw input otherwise.
func (o Outcome) Target() string {
	if o.Address.Host != "" {
		return o.Address.String()
	}
	return o.Raw
}

// Message renders the short user-facing text for the outcome. A mounted
// outcome names the address as the user typed it.
func (o Outcome) Message() string {
	switch {
	case o.Mounted():
		return "Mounted disk from: " + o.Raw
	case o.Reason == ReasonInvalidAddress:
		return "Invalid SMB URL"
	case o.Reason == ReasonCancelled:
		return "Mount cancelled"
	default:
		return "Mount failed"
	}
}

func (o Outcome) String() string {
	if o.Mounted() {
		return fmt.Sprintf("Mounted(%s, %q)", o.Target(), o.Identifier)
	}
	return fmt.Sprintf("Failed(%s, %s)", o.Target(), o.Reason)
}

func mountedOutcome(addr Address, identifier string) Outcome {
	return Outcome{
		Raw:        addr.Raw,
		Address:    addr,
		Status:     StatusMounted,
		Identifier: identifier,
	}
}

func failedOutcome(raw string, addr Address, reason Reason, err error) Outcome {
	return Outcome{
		Raw:     raw,
		Address: addr,
		Status:  StatusFailed,
		Reason:  reason,
		Err:     err,
	}
}
