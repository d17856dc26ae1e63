// Package core provides the foundational domain types and contracts used by
// turnmill. It defines the core abstractions for:
//
//   - Events (immutable conversational inputs submitted by callers)
//   - Responses (the single terminal message produced by a turn)
//   - Futures (exactly-once settlement handles returned to submitters)
//   - The Processor contract executed once per turn
//   - The Injector capability a running processor may use to fold newly
//     buffered events into its in-progress turn
//
// The package intentionally keeps implementation concerns (buffering,
// scheduling, transcript persistence) out of scope, exposing small
// interfaces so higher level packages stay decoupled.
package core
