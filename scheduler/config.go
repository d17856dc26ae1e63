package scheduler

import (
	"time"

	"github.com/hupe1980/turnmill/buffer"
)

// BusyMode controls what happens to events that arrive while a thread
// already has a run in flight.
type BusyMode string

const (
	// BusyWait leaves newly arrived events queued until the next run.
	BusyWait BusyMode = "wait"
	// BusyInject lets the running processor pull newly arrived events into
	// its own execution via the Injector capability.
	BusyInject BusyMode = "inject"
)

// Config defines the scheduling behavior of a thread group. All fields are
// mutable at runtime via Scheduler.SetConfig and take effect on the next
// scheduling decision, not retroactively on an in-flight run.
type Config struct {
	// DebounceWindow is the delay after the most recent arrival before a
	// drain is attempted, used to coalesce bursts. Each arrival resets the
	// full window. Zero disables debouncing.
	DebounceWindow time.Duration

	// DrainPolicy selects how pending batches are assembled into a turn.
	DrainPolicy buffer.DrainPolicy

	// BusyMode selects wait vs inject behavior for events arriving while a
	// run is active.
	BusyMode BusyMode
}

// DefaultConfig provides conservative defaults: no debouncing, all pending
// batches folded into one run, no busy injection.
var DefaultConfig = Config{
	DebounceWindow: 0,
	DrainPolicy:    buffer.DrainAllTogether,
	BusyMode:       BusyWait,
}
