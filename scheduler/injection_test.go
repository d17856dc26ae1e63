package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/turnmill/buffer"
	"github.com/hupe1980/turnmill/core"
)

// pullingProcessor pulls injectable events exactly once mid-run, after the
// test signals that a second batch has been submitted.
type pullingProcessor struct {
	started   chan struct{}
	submitted chan struct{}

	mu      sync.Mutex
	pulled  []core.Event
	lastInj core.Injector
}

func newPullingProcessor() *pullingProcessor {
	return &pullingProcessor{
		started:   make(chan struct{}, 1),
		submitted: make(chan struct{}),
	}
}

func (p *pullingProcessor) Process(ctx context.Context, _ string, events []core.Event, inj core.Injector) (core.Response, error) {
	p.mu.Lock()
	p.lastInj = inj
	p.mu.Unlock()

	select {
	case p.started <- struct{}{}:
	default:
	}

	select {
	case <-ctx.Done():
		return core.Response{}, ctx.Err()
	case <-p.submitted:
	}

	pulled := inj.Pull()
	p.mu.Lock()
	p.pulled = pulled
	p.mu.Unlock()

	resp := core.NewResponse(fmt.Sprintf("turn over %d events", len(events)+len(pulled)))
	resp.FinishReason = "stop"
	return resp, nil
}

func TestBusyInjectionFoldsMidRunSubmission(t *testing.T) {
	proc := newPullingProcessor()
	s := New(proc, func(o *Options) {
		o.Config = Config{DrainPolicy: buffer.DrainAllTogether, BusyMode: BusyInject}
	})

	fut1, err := s.Submit(context.Background(), "thread-1", userEvents("initial"))
	require.NoError(t, err)

	// Wait for the run to start, then submit mid-run.
	select {
	case <-proc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run never started")
	}
	fut2, err := s.Submit(context.Background(), "thread-1", userEvents("late arrival"))
	require.NoError(t, err)
	close(proc.submitted)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp1, err := fut1.Wait(ctx)
	require.NoError(t, err)
	resp2, err := fut2.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, resp1.RunID, resp2.RunID, "the injected token must resolve with the same run")

	proc.mu.Lock()
	defer proc.mu.Unlock()
	require.Len(t, proc.pulled, 1)
	assert.Equal(t, "late arrival", proc.pulled[0].Text)
}

func TestWaitModePullReturnsNothing(t *testing.T) {
	proc := newPullingProcessor()
	s := New(proc) // BusyWait default

	fut1, err := s.Submit(context.Background(), "thread-1", userEvents("initial"))
	require.NoError(t, err)

	select {
	case <-proc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run never started")
	}
	fut2, err := s.Submit(context.Background(), "thread-1", userEvents("queued instead"))
	require.NoError(t, err)
	close(proc.submitted)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp1, err := fut1.Wait(ctx)
	require.NoError(t, err)
	resp2, err := fut2.Wait(ctx)
	require.NoError(t, err)

	proc.mu.Lock()
	pulled := proc.pulled
	proc.mu.Unlock()
	assert.Empty(t, pulled, "wait mode must leave mid-run arrivals queued")
	assert.NotEqual(t, resp1.RunID, resp2.RunID, "the queued batch is served by the next run")
}

func TestStalePullIsNoop(t *testing.T) {
	proc := newPullingProcessor()
	s := New(proc, func(o *Options) {
		o.Config = Config{DrainPolicy: buffer.DrainAllTogether, BusyMode: BusyInject}
	})

	fut, err := s.Submit(context.Background(), "thread-1", userEvents("only batch"))
	require.NoError(t, err)
	select {
	case <-proc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run never started")
	}
	close(proc.submitted)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = fut.Wait(ctx)
	require.NoError(t, err)

	// The run has settled; a speculative pull from the retained capability
	// degrades to an empty result instead of panicking or draining.
	proc.mu.Lock()
	inj := proc.lastInj
	proc.mu.Unlock()
	require.NotNil(t, inj)

	_, err = s.Submit(context.Background(), "thread-1", userEvents("for the next run"))
	require.NoError(t, err)
	assert.Empty(t, inj.Pull())
}
