package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/turnmill/core"
)

// Request captures the normalized model input produced by a turn processor.
// Events carry the conversational history plus the current turn's inputs in
// order; Instructions are provider-level system guidance.
type Request struct {
	Instructions string       `json:"instructions"`
	Events       []core.Event `json:"events"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the single terminal completion returned by Generate.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required to drive generation for one turn.
// Generate must return promptly with an error when ctx is cancelled.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input text.
// The key is matched against the text of the last event in the request.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// Generate implements Model; it echoes a canned or derived completion.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(req.Events) == 0 {
		return Response{}, fmt.Errorf("no events provided")
	}
	last := req.Events[len(req.Events)-1]
	full := m.responses[last.Text]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", last.Text)
	}
	return Response{Text: full, FinishReason: "stop"}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
