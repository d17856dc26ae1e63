package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/turnmill/core"
)

var _ Model = (*MockModel)(nil)

func TestMockModelCannedResponse(t *testing.T) {
	m := NewMockModel("test-model")
	m.AddResponse("ping", "pong")

	resp, err := m.Generate(context.Background(), Request{Events: []core.Event{core.NewUserEvent("ping")}})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockModelDerivedResponse(t *testing.T) {
	m := NewMockModel("test-model")
	resp, err := m.Generate(context.Background(), Request{Events: []core.Event{core.NewUserEvent("hello")}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Text)
}

func TestMockModelRequiresEvents(t *testing.T) {
	m := NewMockModel("test-model")
	_, err := m.Generate(context.Background(), Request{})
	assert.Error(t, err)
}

func TestMockModelHonorsCancelledContext(t *testing.T) {
	m := NewMockModel("test-model")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Generate(ctx, Request{Events: []core.Event{core.NewUserEvent("x")}})
	assert.ErrorIs(t, err, context.Canceled)
}
