// Package buffer implements the per-thread message buffer: a debounced queue
// of token-tagged event batches. The buffer is pure bookkeeping and never
// invokes a processor, never blocks and never errors. A Queue is owned by
// exactly one thread state and must be accessed under that owner's lock; it
// is deliberately not locked internally.
package buffer
