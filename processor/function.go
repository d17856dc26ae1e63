package processor

import (
	"context"

	"github.com/hupe1980/turnmill/core"
)

// Func adapts a plain function to the core.Processor interface, the way
// http.HandlerFunc adapts handlers. The function carries the full processor
// contract: honor ctx cancellation and return one terminal response.
type Func func(ctx context.Context, threadID string, events []core.Event, inj core.Injector) (core.Response, error)

// Process implements core.Processor.
func (f Func) Process(ctx context.Context, threadID string, events []core.Event, inj core.Injector) (core.Response, error) {
	return f(ctx, threadID, events, inj)
}
