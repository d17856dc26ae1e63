package buffer

import (
	"time"

	"github.com/hupe1980/turnmill/core"
)

// DrainPolicy selects how a drain assembles pending batches into a turn.
type DrainPolicy string

const (
	// DrainAllTogether consumes every pending batch and flattens them into
	// one ordered event sequence for a single run.
	DrainAllTogether DrainPolicy = "all-together"
	// DrainOneByOne consumes only the oldest pending batch, leaving the
	// rest queued for subsequent drains.
	DrainOneByOne DrainPolicy = "one-by-one"
)

// TokenPart records how many of a token's events a drain consumed.
type TokenPart struct {
	TokenID string
	Count   int
}

// Descriptor is the result of a drain: the flattened events to hand to the
// processor plus the per-token inclusion counts to credit to the run.
type Descriptor struct {
	Events     []core.Event
	TokenParts []TokenPart
}

// Empty reports whether the drain consumed nothing.
func (d Descriptor) Empty() bool { return len(d.TokenParts) == 0 }

type batch struct {
	tokenID string
	events  []core.Event
}

// Queue holds a thread's pending batches and its debounce deadline.
type Queue struct {
	pending []batch
	readyAt time.Time
}

// NewQueue creates an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue appends a token-tagged batch and resets the debounce deadline to
// now+window. Each arrival restarts the full window, so the wait is only
// ever extended, never shortened. The events are copied, so the caller may
// reuse its slice after Enqueue returns.
func (q *Queue) Enqueue(now time.Time, window time.Duration, tokenID string, events []core.Event) {
	buffered := make([]core.Event, len(events))
	copy(buffered, events)
	q.pending = append(q.pending, batch{tokenID: tokenID, events: buffered})
	q.readyAt = now.Add(window)
}

// Drain removes and returns pending batches according to policy. It returns
// an empty descriptor when nothing is pending or the debounce window has not
// elapsed yet. Events within and across batches keep arrival order.
func (q *Queue) Drain(now time.Time, policy DrainPolicy) Descriptor {
	if len(q.pending) == 0 || now.Before(q.readyAt) {
		return Descriptor{}
	}

	var consumed []batch
	if policy == DrainOneByOne {
		consumed = q.pending[:1]
		q.pending = q.pending[1:]
	} else {
		consumed = q.pending
		q.pending = nil
	}

	var d Descriptor
	for _, b := range consumed {
		d.Events = append(d.Events, b.events...)
		d.TokenParts = append(d.TokenParts, TokenPart{TokenID: b.tokenID, Count: len(b.events)})
	}
	return d
}

// NextReadyAt returns the time at which the debounce window elapses, or
// false when nothing is pending.
func (q *Queue) NextReadyAt() (time.Time, bool) {
	if len(q.pending) == 0 {
		return time.Time{}, false
	}
	return q.readyAt, true
}

// DropTokens removes any still-pending batches for the given token ids, so a
// later drain cannot try to finish a token whose run already failed.
func (q *Queue) DropTokens(tokenIDs []string) {
	if len(tokenIDs) == 0 || len(q.pending) == 0 {
		return
	}
	doomed := make(map[string]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		doomed[id] = struct{}{}
	}
	kept := q.pending[:0]
	for _, b := range q.pending {
		if _, ok := doomed[b.tokenID]; ok {
			continue
		}
		kept = append(kept, b)
	}
	q.pending = kept
}

// Reset discards all pending batches and the debounce deadline.
func (q *Queue) Reset() {
	q.pending = nil
	q.readyAt = time.Time{}
}

// Len returns the number of pending batches.
func (q *Queue) Len() int { return len(q.pending) }

// PendingEvents returns the total number of buffered events.
func (q *Queue) PendingEvents() int {
	n := 0
	for _, b := range q.pending {
		n += len(b.events)
	}
	return n
}
