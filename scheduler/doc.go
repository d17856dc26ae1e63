// Package scheduler implements the thread-scoped run scheduler: the one
// component allowed to decide "start a run now" for a thread. It serializes
// turns per thread, merges concurrently submitted batches through the
// message buffer, settles invocation futures exactly once, and supports
// busy injection into an already-running turn.
//
// Concurrency model: one Scheduler serves many threads. Threads are fully
// independent; each thread's state is guarded by its own mutex and at most
// one run is in flight per thread at any time. The only waits the scheduler
// performs are the debounce timer and the turn goroutine itself.
package scheduler
