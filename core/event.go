package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single conversational input submitted to a thread. After
// submission it should be treated as immutable. Events are batched by the
// message buffer and handed to the turn processor in arrival order.
type Event struct {
	ID        string            `json:"id"`
	Author    string            `json:"author"` // "user", "assistant" or "system"
	Text      string            `json:"text"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates a bare event authored by 'author'.
// Prefer the role-specific constructors for common cases.
func NewEvent(author, text string) Event {
	return Event{
		ID:        NewID(),
		Author:    author,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserEvent creates a user-authored text event.
func NewUserEvent(text string) Event { return NewEvent("user", text) }

// NewAssistantEvent creates an assistant-authored text event, typically a
// prior turn response replayed as conversational history.
func NewAssistantEvent(text string) Event { return NewEvent("assistant", text) }

// NewSystemEvent creates a system-authored event (instructions, notices).
func NewSystemEvent(text string) Event { return NewEvent("system", text) }

// Response is the terminal message produced by one turn. The scheduler stamps
// ThreadID and RunID before resolving the futures of the tokens the run
// carried.
type Response struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	RunID        string    `json:"run_id"`
	Text         string    `json:"text"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewResponse creates a response with a fresh id and UTC timestamp. ThreadID
// and RunID are filled in by the scheduler on settlement.
func NewResponse(text string) Response {
	return Response{
		ID:        NewID(),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier for events, runs and tokens.
func NewID() string { return uuid.NewString() }
