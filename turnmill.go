// Package turnmill provides a high-level façade over the run scheduler,
// message buffer and transcript store, coordinating bursts of inbound
// conversational events into serialized per-thread turns. Most applications
// interact with this package by:
//  1. Creating a Turnmill via New() with a turn processor (custom Func,
//     ModelProcessor, or any core.Processor)
//  2. Submitting event batches asynchronously (Submit) or synchronously
//     (SubmitSync / SubmitText)
//  3. Stopping individual threads (Stop) or the whole instance (Shutdown)
//
// The façade delegates scheduling to scheduler.Scheduler while recording
// every turn's inputs and terminal response in the transcript store. All
// defaults are safe for local development and testing; production
// deployments typically supply a durable transcript store and a structured
// logger.
package turnmill

import (
	"context"

	"github.com/hupe1980/turnmill/core"
	"github.com/hupe1980/turnmill/logging"
	"github.com/hupe1980/turnmill/scheduler"
	"github.com/hupe1980/turnmill/session"
)

// Options configures the Turnmill instance.
type Options struct {
	// Config sets the initial scheduling behavior (debounce window, drain
	// policy, busy mode).
	Config scheduler.Config

	// Transcripts records each turn's events and response per thread.
	// Defaults to an in-memory store.
	Transcripts session.TranscriptStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Turnmill is the high-level façade aggregating the scheduler and transcript
// store. Public methods are safe for concurrent use.
type Turnmill struct {
	sched       *scheduler.Scheduler
	transcripts session.TranscriptStore
}

// New creates a new Turnmill instance driving the given processor. Any unset
// service is initialized with an in-memory implementation.
func New(proc core.Processor, optFns ...func(o *Options)) *Turnmill {
	opts := Options{
		Config:      scheduler.DefaultConfig,
		Transcripts: session.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	recorded := &recordingProcessor{inner: proc, transcripts: opts.Transcripts, logger: opts.Logger}
	sched := scheduler.New(recorded, func(o *scheduler.Options) {
		o.Config = opts.Config
		o.Logger = opts.Logger
	})

	return &Turnmill{sched: sched, transcripts: opts.Transcripts}
}

// Submit enqueues events as one batch for the thread and returns a future
// that settles with the turn response incorporating them. Multiple
// concurrent submissions for the same thread are independently tracked.
func (t *Turnmill) Submit(ctx context.Context, threadID string, events []core.Event) (*core.Future, error) {
	return t.sched.Submit(ctx, threadID, events)
}

// SubmitSync submits one batch and blocks until its turn settles.
func (t *Turnmill) SubmitSync(ctx context.Context, threadID string, events []core.Event) (core.Response, error) {
	fut, err := t.Submit(ctx, threadID, events)
	if err != nil {
		return core.Response{}, err
	}
	return fut.Wait(ctx)
}

// SubmitText is a convenience wrapper submitting a single user text event.
func (t *Turnmill) SubmitText(ctx context.Context, threadID, text string) (core.Response, error) {
	return t.SubmitSync(ctx, threadID, []core.Event{core.NewUserEvent(text)})
}

// Stop cancels the thread's in-flight turn and clears its debounce timer.
// Queued batches remain and are served by the next scheduling decision.
func (t *Turnmill) Stop(threadID string) { t.sched.Stop(threadID) }

// Shutdown stops every thread and rejects all still-pending futures with
// scheduler.ErrShutdown. Idempotent.
func (t *Turnmill) Shutdown() { t.sched.Shutdown() }

// SetConfig replaces the scheduling configuration; the new values take
// effect on the next scheduling decision.
func (t *Turnmill) SetConfig(cfg scheduler.Config) { t.sched.SetConfig(cfg) }

// Config returns the current scheduling configuration.
func (t *Turnmill) Config() scheduler.Config { return t.sched.Config() }

// Transcripts exposes the transcript store for inspection or custom wiring.
func (t *Turnmill) Transcripts() session.TranscriptStore { return t.transcripts }

// recordingProcessor wraps the user's processor so every turn's inputs,
// including busy-injected events, and its terminal response land in the
// transcript store. Everything is appended only after the turn succeeds:
// history reads during the turn therefore see the pre-turn transcript, and a
// failed run leaves no trace, matching the scheduler's no-partial-credit
// rule. Recording failures are not fatal; they are logged at warn and the
// processor's outcome wins.
type recordingProcessor struct {
	inner       core.Processor
	transcripts session.TranscriptStore
	logger      logging.Logger
}

var _ core.Processor = (*recordingProcessor)(nil)

func (p *recordingProcessor) Process(ctx context.Context, threadID string, events []core.Event, inj core.Injector) (core.Response, error) {
	capture := &capturingInjector{inner: inj}
	resp, err := p.inner.Process(ctx, threadID, events, capture)
	if err != nil {
		return resp, err
	}
	if err := p.transcripts.AppendEvents(threadID, events...); err != nil {
		p.logger.Warn("transcript append failed thread_id=%s err=%v", threadID, err)
	}
	if err := p.transcripts.AppendEvents(threadID, capture.pulled...); err != nil {
		p.logger.Warn("transcript append failed thread_id=%s err=%v", threadID, err)
	}
	if err := p.transcripts.AppendResponse(threadID, resp); err != nil {
		p.logger.Warn("transcript response append failed thread_id=%s err=%v", threadID, err)
	}
	return resp, nil
}

// capturingInjector forwards pulls while remembering the injected events so
// the wrapper can record them once the turn succeeds.
type capturingInjector struct {
	inner  core.Injector
	pulled []core.Event
}

func (in *capturingInjector) Pull() []core.Event {
	events := in.inner.Pull()
	in.pulled = append(in.pulled, events...)
	return events
}
