package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/turnmill/buffer"
	"github.com/hupe1980/turnmill/core"
	"github.com/hupe1980/turnmill/logging"
)

// ErrShutdown is the terminal rejection delivered to every still-pending
// future when the scheduler shuts down, distinguished from a turn failure so
// callers can tell "the turn failed" from "the service is stopping".
var ErrShutdown = errors.New("scheduler shut down")

// token is a caller's claim on a future result, covering a fixed count of
// submitted events. It is owned exclusively by its thread state until it
// settles and is removed from the map immediately after.
type token struct {
	id       string
	total    int
	included int
	future   *core.Future
}

// run tracks one in-flight turn. It holds token ids and counts only, never
// token pointers, so no cycle exists between runs and tokens.
type run struct {
	id       string
	seq      int
	included map[string]int
	cancel   context.CancelFunc
}

// threadState is the per-thread arena: run flag, sequence counter, pending
// tokens, queue and debounce timer, all guarded by its own mutex.
type threadState struct {
	id string

	mu      sync.Mutex
	running bool
	seq     int
	tokens  map[string]*token
	queue   *buffer.Queue
	run     *run
	timer   *time.Timer
}

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Config sets the initial scheduling behavior.
	Config Config
	// Logger receives scheduler diagnostics. Defaults to NoOp.
	Logger logging.Logger
	// Clock overrides the time source for debounce bookkeeping (ready
	// times, durations) in tests. The armed debounce timer itself runs on
	// the wall clock, so an injected clock must advance at least as fast
	// as real time or ready checks will keep failing after the timer
	// fires.
	Clock func() time.Time
}

// Scheduler coordinates bursts of submitted events into serialized per-thread
// turns executed by the configured processor. Public methods are safe for
// concurrent use. Scheduler state is volatile; nothing survives a restart.
type Scheduler struct {
	proc core.Processor

	mu      sync.Mutex
	threads map[string]*threadState
	cfg     Config
	closed  bool

	logger logging.Logger
	nowFn  func() time.Time
}

// New constructs a Scheduler driving the given processor.
func New(proc core.Processor, optFns ...func(o *Options)) *Scheduler {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
		Clock:  func() time.Time { return time.Now() },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.DrainPolicy == "" {
		opts.Config.DrainPolicy = buffer.DrainAllTogether
	}
	if opts.Config.BusyMode == "" {
		opts.Config.BusyMode = BusyWait
	}
	return &Scheduler{
		proc:    proc,
		threads: make(map[string]*threadState),
		cfg:     opts.Config,
		logger:  opts.Logger,
		nowFn:   opts.Clock,
	}
}

// SetConfig replaces the scheduling configuration. The new values apply to
// the next scheduling decision; an in-flight run is not re-planned.
func (s *Scheduler) SetConfig(cfg Config) {
	if cfg.DrainPolicy == "" {
		cfg.DrainPolicy = buffer.DrainAllTogether
	}
	if cfg.BusyMode == "" {
		cfg.BusyMode = BusyWait
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Config returns the current scheduling configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Submit enqueues events as one batch for the thread and returns a future
// that settles when every event of the batch has been included in a
// completed turn, or when a turn carrying any of them fails. Concurrent
// submissions for the same thread are independently tracked.
func (s *Scheduler) Submit(ctx context.Context, threadID string, events []core.Event) (*core.Future, error) {
	if threadID == "" {
		return nil, fmt.Errorf("thread id is required")
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("at least one event is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrShutdown
	}
	ts, ok := s.threads[threadID]
	if !ok {
		ts = &threadState{
			id:     threadID,
			tokens: make(map[string]*token),
			queue:  buffer.NewQueue(),
		}
		s.threads[threadID] = ts
	}
	window := s.cfg.DebounceWindow
	s.mu.Unlock()

	tok := &token{id: core.NewID(), total: len(events), future: core.NewFuture()}

	ts.mu.Lock()
	ts.tokens[tok.id] = tok
	ts.queue.Enqueue(s.nowFn(), window, tok.id, events)
	ts.mu.Unlock()

	// Shutdown may have swept this thread between the closed-check above and
	// the insert; re-check so a token never slips in after the sweep and
	// leaves its caller waiting forever. Seeing closed==false here means the
	// sweep has not started yet and will find the token.
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		ts.mu.Lock()
		delete(ts.tokens, tok.id)
		ts.queue.DropTokens([]string{tok.id})
		ts.mu.Unlock()
		tok.future.Reject(ErrShutdown)
		return nil, ErrShutdown
	}

	s.logger.Debug("batch enqueued thread_id=%s token_id=%s events=%d", threadID, tok.id, len(events))
	s.evaluate(ts)

	return tok.future, nil
}

// Stop cancels the thread's current run, if any, and clears its pending
// debounce timer. It does not settle outstanding futures: tokens carried by
// the cancelled run are rejected when the run unwinds through its normal
// failure path, and batches still queued are picked up by the next
// scheduling decision.
func (s *Scheduler) Stop(threadID string) {
	s.mu.Lock()
	ts := s.threads[threadID]
	s.mu.Unlock()
	if ts == nil {
		return
	}

	ts.mu.Lock()
	if ts.timer != nil {
		ts.timer.Stop()
		ts.timer = nil
	}
	var cancel context.CancelFunc
	if ts.run != nil {
		cancel = ts.run.cancel
	}
	ts.mu.Unlock()

	if cancel != nil {
		s.logger.Info("run cancelled thread_id=%s", threadID)
		cancel()
	}
}

// Shutdown stops every thread and rejects all still-pending futures with
// ErrShutdown so no caller is left waiting forever. It is idempotent:
// futures pending at the first call are rejected exactly once, and later
// calls are no-ops. Submit fails with ErrShutdown afterwards.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	threads := make([]*threadState, 0, len(s.threads))
	for _, ts := range s.threads {
		threads = append(threads, ts)
	}
	s.mu.Unlock()

	for _, ts := range threads {
		ts.mu.Lock()
		if ts.timer != nil {
			ts.timer.Stop()
			ts.timer = nil
		}
		var cancel context.CancelFunc
		if ts.run != nil {
			cancel = ts.run.cancel
		}
		for id, tok := range ts.tokens {
			tok.future.Reject(ErrShutdown)
			delete(ts.tokens, id)
		}
		ts.queue.Reset()
		ts.mu.Unlock()

		if cancel != nil {
			cancel()
		}
	}
	s.logger.Info("scheduler shut down threads=%d", len(threads))
}

// evaluate is the per-thread state machine entry: Idle -> Draining ->
// Running. It is triggered by Submit, by debounce timer expiry and by run
// completion, and is a no-op while a run is active.
func (s *Scheduler) evaluate(ts *threadState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cfg := s.cfg
	s.mu.Unlock()

	ts.mu.Lock()
	if ts.running {
		ts.mu.Unlock()
		return
	}

	now := s.nowFn()
	desc := ts.queue.Drain(now, cfg.DrainPolicy)
	if desc.Empty() {
		if readyAt, ok := ts.queue.NextReadyAt(); ok {
			delay := readyAt.Sub(now)
			if delay < 0 {
				delay = 0
			}
			if ts.timer != nil {
				ts.timer.Stop()
			}
			ts.timer = time.AfterFunc(delay, func() { s.evaluate(ts) })
		}
		ts.mu.Unlock()
		return
	}

	if ts.timer != nil {
		ts.timer.Stop()
		ts.timer = nil
	}
	ts.seq++
	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{id: core.NewID(), seq: ts.seq, included: make(map[string]int), cancel: cancel}
	for _, part := range desc.TokenParts {
		r.included[part.TokenID] += part.Count
	}
	ts.running = true
	ts.run = r
	ts.mu.Unlock()

	go s.runTurn(runCtx, ts, r, desc.Events)
}

// runTurn is the scheduler's single suspension point: it invokes the
// processor and settles the run's tokens on completion.
func (s *Scheduler) runTurn(ctx context.Context, ts *threadState, r *run, events []core.Event) {
	defer r.cancel()

	start := s.nowFn()
	inj := &injector{s: s, ts: ts, runID: r.id}
	resp, err := s.proc.Process(ctx, ts.id, events, inj)
	s.logger.Debug("turn settled thread_id=%s run_id=%s duration=%s err=%v", ts.id, r.id, s.nowFn().Sub(start), err)

	ts.mu.Lock()
	if err != nil {
		// A failed run discards partial credit: every token it carried is
		// rejected with the error verbatim and its remaining batches are
		// dropped so a later drain cannot try to finish it.
		doomed := make([]string, 0, len(r.included))
		for id := range r.included {
			doomed = append(doomed, id)
			if tok, ok := ts.tokens[id]; ok {
				tok.future.Reject(err)
				delete(ts.tokens, id)
			}
		}
		ts.queue.DropTokens(doomed)
	} else {
		resp.ThreadID = ts.id
		resp.RunID = r.id
		for id, count := range r.included {
			tok, ok := ts.tokens[id]
			if !ok {
				continue
			}
			tok.included += count
			if tok.included >= tok.total {
				tok.future.Resolve(resp)
				delete(ts.tokens, id)
			}
		}
	}
	ts.running = false
	ts.run = nil
	ts.mu.Unlock()

	// Pick up anything queued meanwhile, including events that arrived
	// during the run in wait mode.
	s.evaluate(ts)
}

// injector is the narrow capability handed to the active processor of one
// run. Pull performs the same drain as a scheduler-initiated drain but
// credits the drained token parts to the current run instead of starting a
// new one.
type injector struct {
	s     *Scheduler
	ts    *threadState
	runID string
}

// Pull implements core.Injector.
func (in *injector) Pull() []core.Event {
	in.s.mu.Lock()
	cfg := in.s.cfg
	in.s.mu.Unlock()

	in.ts.mu.Lock()
	defer in.ts.mu.Unlock()

	if !in.ts.running || in.ts.run == nil || in.ts.run.id != in.runID {
		// Processor misuse (pull outside the run's window): degrade to a
		// no-op since processors may call speculatively.
		in.s.logger.Warn("injection pull without active run thread_id=%s run_id=%s", in.ts.id, in.runID)
		return nil
	}
	if cfg.BusyMode != BusyInject {
		return nil
	}

	desc := in.ts.queue.Drain(in.s.nowFn(), cfg.DrainPolicy)
	if desc.Empty() {
		return nil
	}
	for _, part := range desc.TokenParts {
		in.ts.run.included[part.TokenID] += part.Count
	}
	in.s.logger.Debug("events injected thread_id=%s run_id=%s events=%d", in.ts.id, in.runID, len(desc.Events))
	return desc.Events
}
