package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hupe1980/turnmill/buffer"
	"github.com/hupe1980/turnmill/core"
)

// overlapProbe counts concurrently active turns per thread and totals the
// events each thread's turns consumed.
type overlapProbe struct {
	mu         sync.Mutex
	active     map[string]int
	consumed   map[string]int
	overlapped atomic.Bool
	fail       func(threadID string) bool
}

func newOverlapProbe() *overlapProbe {
	return &overlapProbe{active: make(map[string]int), consumed: make(map[string]int)}
}

func (p *overlapProbe) Process(ctx context.Context, threadID string, events []core.Event, _ core.Injector) (core.Response, error) {
	p.mu.Lock()
	p.active[threadID]++
	if p.active[threadID] > 1 {
		p.overlapped.Store(true)
	}
	p.mu.Unlock()

	// Hold the turn open briefly so overlaps would be observable.
	select {
	case <-ctx.Done():
	case <-time.After(time.Millisecond):
	}

	p.mu.Lock()
	p.active[threadID]--
	shouldFail := p.fail != nil && p.fail(threadID)
	if !shouldFail {
		p.consumed[threadID] += len(events)
	}
	p.mu.Unlock()

	if shouldFail {
		return core.Response{}, errors.New("injected turn failure")
	}
	return core.NewResponse("ok"), nil
}

type submissionPlan struct {
	ThreadCount  int
	BatchesPer   int
	EventsPer    int
	Window       time.Duration
	Policy       buffer.DrainPolicy
	FailEveryNth int // 0 disables failures
}

func genSubmissionPlan() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 4),
		gen.IntRange(1, 6),
		gen.IntRange(1, 3),
		gen.IntRange(0, 10),
		gen.Bool(),
		gen.IntRange(0, 3),
	).Map(func(vals []interface{}) submissionPlan {
		policy := buffer.DrainAllTogether
		if vals[4].(bool) {
			policy = buffer.DrainOneByOne
		}
		return submissionPlan{
			ThreadCount:  vals[0].(int),
			BatchesPer:   vals[1].(int),
			EventsPer:    vals[2].(int),
			Window:       time.Duration(vals[3].(int)) * time.Millisecond,
			Policy:       policy,
			FailEveryNth: vals[5].(int),
		}
	})
}

// TestAtMostOneRunPerThreadProperty fuzzes concurrent submissions and checks
// the two load-bearing invariants of the design: turns for one thread never
// overlap in time, and every token settles exactly once, resolved only when
// its full event count was included, rejected otherwise.
func TestAtMostOneRunPerThreadProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("per-thread turns never overlap and tokens settle exactly once", prop.ForAll(
		func(plan submissionPlan) bool {
			probe := newOverlapProbe()
			var failCounter atomic.Int64
			if plan.FailEveryNth > 0 {
				probe.fail = func(string) bool {
					return failCounter.Add(1)%int64(plan.FailEveryNth+1) == 0
				}
			}

			s := New(probe, func(o *Options) {
				o.Config = Config{DebounceWindow: plan.Window, DrainPolicy: plan.Policy, BusyMode: BusyWait}
			})
			defer s.Shutdown()

			threadIDs := make([]string, plan.ThreadCount)
			for i := range threadIDs {
				threadIDs[i] = core.NewID()
			}

			var wg sync.WaitGroup
			futures := make(chan *core.Future, plan.ThreadCount*plan.BatchesPer)
			for _, threadID := range threadIDs {
				for b := 0; b < plan.BatchesPer; b++ {
					wg.Add(1)
					go func(threadID string) {
						defer wg.Done()
						events := make([]core.Event, plan.EventsPer)
						for i := range events {
							events[i] = core.NewUserEvent("x")
						}
						fut, err := s.Submit(context.Background(), threadID, events)
						if err != nil {
							return
						}
						futures <- fut
					}(threadID)
				}
			}
			wg.Wait()
			close(futures)

			// Every token settles within the deadline, exactly once.
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			resolved := 0
			for fut := range futures {
				_, err := fut.Wait(ctx)
				if ctx.Err() != nil {
					return false
				}
				if err == nil {
					resolved++
				}
			}

			if probe.overlapped.Load() {
				return false
			}

			// Resolved tokens account exactly for the events successful
			// turns consumed, with no partial credit and no double counting.
			probe.mu.Lock()
			totalConsumed := 0
			for _, n := range probe.consumed {
				totalConsumed += n
			}
			probe.mu.Unlock()
			return totalConsumed == resolved*plan.EventsPer
		},
		genSubmissionPlan(),
	))

	properties.TestingRun(t)
}
