package session

import (
	"sync"

	"github.com/hupe1980/turnmill/core"
)

// InMemoryStore is a volatile TranscriptStore implementation storing
// transcripts in a process local map. It is safe for concurrent access and
// best suited for tests or ephemeral deployments. History returns a copy so
// callers cannot mutate internal state.
type InMemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string][]core.Event
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transcripts: make(map[string][]core.Event)}
}

// AppendEvents records events in arrival order.
func (s *InMemoryStore) AppendEvents(threadID string, events ...core.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[threadID] = append(s.transcripts[threadID], events...)
	return nil
}

// AppendResponse records a turn response as an assistant-authored event.
func (s *InMemoryStore) AppendResponse(threadID string, resp core.Response) error {
	ev := core.Event{
		ID:        resp.ID,
		Author:    "assistant",
		Text:      resp.Text,
		Timestamp: resp.Timestamp,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[threadID] = append(s.transcripts[threadID], ev)
	return nil
}

// History returns a copy of the thread's transcript.
func (s *InMemoryStore) History(threadID string) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.transcripts[threadID]
	out := make([]core.Event, len(stored))
	copy(out, stored)
	return out, nil
}

// Clear removes the thread's transcript.
func (s *InMemoryStore) Clear(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, threadID)
	return nil
}
