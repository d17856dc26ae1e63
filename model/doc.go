// Package model defines the provider-neutral language model contract used by
// model-backed turn processors. Each Generate call produces exactly one
// terminal response, matching the one-terminal-response-per-turn contract of
// the scheduler; cancellation flows through the context. Provider adapters
// live in sub-packages (anthropic, openai).
package model
