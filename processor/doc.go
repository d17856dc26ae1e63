// Package processor provides ready-made core.Processor implementations: a
// plain function adapter for custom turn logic and a model-backed processor
// that drives a language model over the thread transcript, folding
// busy-injected events into its in-progress context.
package processor
