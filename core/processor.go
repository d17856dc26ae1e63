package core

import "context"

// Processor executes one complete turn over a batch of events and produces a
// single terminal response. Implementations must:
//
//   - Return promptly with ctx.Err() (or an error wrapping it) when ctx is
//     cancelled
//   - Be safe to invoke repeatedly, sequentially, for the same thread
//   - Optionally call Injector.Pull at a point of their choosing to fold
//     newly buffered events into the in-progress turn
//
// A processor that never pulls behaves identically to "wait" busy mode.
type Processor interface {
	Process(ctx context.Context, threadID string, events []Event, inj Injector) (Response, error)
}

// Injector is the narrow capability handed to a running processor. It exposes
// only the busy-injection drain for the processor's own thread and run,
// keeping the dependency one-way: the processor never sees the scheduler.
type Injector interface {
	// Pull drains newly buffered events into the current run, crediting
	// their tokens to it. It returns an empty slice when busy mode is
	// "wait", when nothing is ready, or when the calling run is no longer
	// active (a stale pull is logged, never an error).
	Pull() []Event
}
