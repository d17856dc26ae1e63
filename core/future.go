package core

import (
	"context"
	"sync"
)

// Future is a caller's claim on the result of a future turn. It settles
// exactly once, either with the terminal response of the run that completed
// the caller's events or with that run's error. Settlement after the first
// is a no-op, which makes the many-producers / one-consumer protocol of the
// scheduler safe by construction.
type Future struct {
	once sync.Once
	done chan struct{}

	resp Response
	err  error
}

// NewFuture creates an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve settles the future with a response. Later calls to Resolve or
// Reject are ignored.
func (f *Future) Resolve(resp Response) {
	f.once.Do(func() {
		f.resp = resp
		close(f.done)
	})
}

// Reject settles the future with an error. Later calls to Resolve or Reject
// are ignored.
func (f *Future) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed on settlement.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future settles or ctx is cancelled. Abandoning a
// Wait does not settle the future; it remains pending and settles normally.
func (f *Future) Wait(ctx context.Context) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-f.done:
		return f.resp, f.err
	}
}

// Settled reports whether the future has settled without blocking.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
