package session

import "github.com/hupe1980/turnmill/core"

// TranscriptStore persists per-thread conversational history: the events
// submitted to a thread plus the assistant responses its turns produced.
// Implementations must be safe for concurrent use.
type TranscriptStore interface {
	// AppendEvents records submitted or injected events in arrival order.
	AppendEvents(threadID string, events ...core.Event) error
	// AppendResponse records a turn's terminal response as an
	// assistant-authored event.
	AppendResponse(threadID string, resp core.Response) error
	// History returns the thread's transcript in insertion order.
	History(threadID string) ([]core.Event, error)
	// Clear removes the thread's transcript.
	Clear(threadID string) error
}
