package smbmount

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sink receives mount outcomes. Deliver is always called from a single
// goroutine, in completion order, so a UI adapter may mutate its widgets
// directly.
type Sink interface {
	Deliver(Outcome)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Outcome)

// Deliver calls f(o).
func (f SinkFunc) Deliver(o Outcome) {
	f(o)
}

// ChannelSink returns a Sink that sends outcomes on ch.
func ChannelSink(ch chan<- Outcome) Sink {
	return SinkFunc(func(o Outcome) {
		ch <- o
	})
}

// Dispatcher runs mount invocations off the submitting goroutine and hands
// their outcomes to a Sink.
type Dispatcher struct {
	orch *Orchestrator
	sink Sink

	ctx    context.Context
	cancel context.CancelFunc

	deliverWg sync.WaitGroup
	results   chan Outcome

	mu      sync.Mutex
	idle    *sync.Cond // signalled when pending drops to zero
	pending int        // submitted, not yet delivered
	closed  bool
}

// NewDispatcher creates a dispatcher delivering outcomes of orch to sink.
func NewDispatcher(orch *Orchestrator, sink Sink) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		orch:    orch,
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan Outcome),
	}
	d.idle = sync.NewCond(&d.mu)

	d.deliverWg.Add(1)
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer d.deliverWg.Done()
	for o := range d.results {
		d.sink.Deliver(o)

		d.mu.Lock()
		d.pending--
		if d.pending == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}
}

// Submit starts a mount invocation for raw and returns its invocation id.
// The returned id is empty when the dispatcher is closed.
func (d *Dispatcher) Submit(raw string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ""
	}

	id := uuid.NewString()
	d.pending++
	go func() {
		d.results <- d.orch.Mount(WithInvocationID(d.ctx, id), raw)
	}()
	return id
}

// Close cancels in-flight invocations, waits for their outcomes to be
// delivered and stops the dispatcher.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.Wait()
	close(d.results)
	d.deliverWg.Wait()
	return nil
}

// Wait blocks until every invocation submitted so far has been delivered,
// without closing the dispatcher. It may be called concurrently with Submit;
// invocations submitted while it waits are waited for too.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.pending > 0 {
		d.idle.Wait()
	}
}
