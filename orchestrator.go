package smbmount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// State is a step of a mount invocation.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateResolving
	StateMounting
	StateMounted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateResolving:
		return "resolving"
	case StateMounting:
		return "mounting"
	case StateMounted:
		return "mounted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateMounted || s == StateFailed
}

// StateObserver is called synchronously each time an invocation enters a
// state. id is the invocation id.
type StateObserver func(id string, s State)

// AddressResolver resolves a validated address to a disk record.
// *Resolver implements it.
type AddressResolver interface {
	Resolve(ctx context.Context, addr Address) (DiskRecord, error)
}

// Orchestrator sequences validation, resolution and the mount step and
// turns the result into exactly one Outcome. It keeps no state between
// invocations and is safe for concurrent use.
type Orchestrator struct {
	resolver AddressResolver
	mounter  Mounter
	logger   Logger
	observer StateObserver
	metrics  *Metrics
	flight   *singleflight.Group
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMounter replaces the default NameMounter.
func WithMounter(m Mounter) Option {
	return func(o *Orchestrator) {
		o.mounter = m
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithStateObserver registers a state transition observer.
func WithStateObserver(fn StateObserver) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithSingleFlight collapses concurrent invocations for the same address
// into one resolution. Callers joining an in-flight resolution share its
// result, including its cancellation.
func WithSingleFlight() Option {
	return func(o *Orchestrator) {
		o.flight = &singleflight.Group{}
	}
}

// NewOrchestrator creates an orchestrator over resolver.
func NewOrchestrator(resolver AddressResolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		mounter:  NameMounter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type invocationIDKey struct{}

// WithInvocationID returns a context carrying the id Mount should use for
// its Outcome.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

func invocationID(ctx context.Context) string {
	if id, ok := ctx.Value(invocationIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Mount validates raw, resolves it and performs the mount step. It always
// returns exactly one Outcome and never retries. Resolver and mount errors
// are reported as ReasonMountFailed with the full chain in Outcome.Err;
// cancellation of ctx is reported as ReasonCancelled.
func (o *Orchestrator) Mount(ctx context.Context, raw string) Outcome {
	id := invocationID(ctx)
	start := o.now()
	o.metrics.begin()

	out := o.mount(ctx, id, raw)

	out.ID = id
	out.Duration = o.now().Sub(start)
	o.metrics.observe(out, out.Duration)

	if out.Mounted() {
		o.transition(id, StateMounted)
		o.logf("[%s] %s", id, out)
	} else {
		o.transition(id, StateFailed)
		o.logf("[%s] %s: %v", id, out, out.Err)
	}
	return out
}

func (o *Orchestrator) mount(ctx context.Context, id, raw string) Outcome {
	o.transition(id, StateIdle)

	o.transition(id, StateValidating)
	addr, err := ParseAddress(raw)
	if err != nil {
		return failedOutcome(strings.TrimSpace(raw), Address{}, ReasonInvalidAddress, err)
	}

	if o.flight == nil {
		return o.resolveAndMount(ctx, id, addr)
	}

	ch := o.flight.DoChan(addr.String(), func() (interface{}, error) {
		return o.resolveAndMount(ctx, id, addr), nil
	})
	select {
	case res := <-ch:
		out := res.Val.(Outcome)
		if res.Shared {
			// Keep this caller's own input on a shared result.
			out.Raw = addr.Raw
			out.Address = addr
		}
		return out
	case <-ctx.Done():
		return failedOutcome(addr.Raw, addr, ReasonCancelled, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
	}
}

func (o *Orchestrator) resolveAndMount(ctx context.Context, id string, addr Address) Outcome {
	o.transition(id, StateResolving)
	rec, err := o.resolver.Resolve(ctx, addr)
	if err != nil {
		return o.failure(ctx, addr, err)
	}

	o.transition(id, StateMounting)
	identifier, err := runMounter(ctx, o.mounter, addr, rec)
	if err != nil {
		return o.failure(ctx, addr, fmt.Errorf("mount %s: %w", rec, err))
	}
	if identifier == "" {
		identifier = addr.String()
	}
	return mountedOutcome(addr, identifier)
}

// runMounter calls m and converts a panic into an error.
func runMounter(ctx context.Context, m Mounter, addr Address, rec DiskRecord) (identifier string, err error) {
	defer func() {
		if p := recover(); p != nil {
			identifier = ""
			err = fmt.Errorf("mounter panicked: %v", p)
		}
	}()
	return m.Mount(ctx, addr, rec)
}

// failure maps an internal error to a failed outcome.
func (o *Orchestrator) failure(ctx context.Context, addr Address, err error) Outcome {
	if errors.Is(err, ErrCancelled) || errors.Is(ctx.Err(), context.Canceled) {
		if !errors.Is(err, ErrCancelled) {
			err = fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return failedOutcome(addr.Raw, addr, ReasonCancelled, err)
	}
	return failedOutcome(addr.Raw, addr, ReasonMountFailed, fmt.Errorf("%w: %w", ErrMountFailed, err))
}

func (o *Orchestrator) transition(id string, s State) {
	if o.observer != nil {
		o.observer(id, s)
	}
}

func (o *Orchestrator) logf(format string, v ...interface{}) {
	if o.logger != nil {
		o.logger.Printf(format, v...)
	}
}
