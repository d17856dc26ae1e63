// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a TurnLogger with contextual helpers
// (component, thread, run) and a helper for recording turn outcomes.
package logging
