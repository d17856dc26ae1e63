// Package session houses transcript storage for turn threads. The
// TranscriptStore interface records the events each turn consumed and the
// terminal response it produced, giving model-backed processors their
// conversational context.
//
// Add additional backends (Redis, Postgres, SQLite, etc.) in sub-packages
// without changing any calling code; only the wiring layer needs to decide
// which implementation to instantiate.
package session
