package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/turnmill/core"
	"github.com/hupe1980/turnmill/logging"
	"github.com/hupe1980/turnmill/model"
	"github.com/hupe1980/turnmill/session"
)

// ModelOptions holds dependency and configuration overrides for a
// ModelProcessor.
type ModelOptions struct {
	// Instructions is the system guidance prepended to every model call.
	Instructions string
	// Transcripts supplies prior conversation history. Nil disables history.
	Transcripts session.TranscriptStore
	// MaxModelCalls limits model calls per turn (injection re-generates).
	MaxModelCalls int
	// Logger receives processor diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// ModelProcessor is a core.Processor that answers each turn with a language
// model completion over the thread transcript plus the turn's events. After
// each completion it pulls injectable events; when new input arrived mid-run
// it folds the interim completion and the new events into the context and
// generates again, so the terminal response incorporates everything the run
// was credited with.
type ModelProcessor struct {
	model         model.Model
	instructions  string
	transcripts   session.TranscriptStore
	maxModelCalls int
	logger        logging.Logger
}

// NewModelProcessor constructs a ModelProcessor with optional overrides.
func NewModelProcessor(m model.Model, optFns ...func(o *ModelOptions)) *ModelProcessor {
	opts := ModelOptions{
		MaxModelCalls: 10,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelProcessor{
		model:         m,
		instructions:  opts.Instructions,
		transcripts:   opts.Transcripts,
		maxModelCalls: opts.MaxModelCalls,
		logger:        opts.Logger,
	}
}

// Process implements core.Processor.
func (p *ModelProcessor) Process(ctx context.Context, threadID string, events []core.Event, inj core.Injector) (core.Response, error) {
	convo, err := p.history(threadID)
	if err != nil {
		return core.Response{}, err
	}
	convo = append(convo, events...)

	limiter := core.NewCallLimiter(p.maxModelCalls)
	start := time.Now()

	for {
		if err := limiter.Increment(); err != nil {
			return core.Response{}, fmt.Errorf("turn aborted: %w", err)
		}

		resp, err := p.model.Generate(ctx, model.Request{Instructions: p.instructions, Events: convo})
		if err != nil {
			return core.Response{}, fmt.Errorf("model call failed: %w", err)
		}

		var injected []core.Event
		if inj != nil {
			injected = inj.Pull()
		}
		if len(injected) == 0 {
			p.logger.Debug("model turn finished thread_id=%s calls=%d duration=%s", threadID, limiter.Count(), time.Since(start))
			out := core.NewResponse(resp.Text)
			out.FinishReason = resp.FinishReason
			return out, nil
		}

		// New input arrived mid-run: keep the interim completion as context
		// and extend the conversation before generating again.
		p.logger.Debug("folding injected events thread_id=%s count=%d", threadID, len(injected))
		convo = append(convo, core.NewAssistantEvent(resp.Text))
		convo = append(convo, injected...)
	}
}

func (p *ModelProcessor) history(threadID string) ([]core.Event, error) {
	if p.transcripts == nil {
		return nil, nil
	}
	history, err := p.transcripts.History(threadID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return history, nil
}
