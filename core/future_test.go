package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureResolveOnce(t *testing.T) {
	f := NewFuture()
	f.Resolve(Response{Text: "first"})
	f.Resolve(Response{Text: "second"})
	f.Reject(errors.New("too late"))

	resp, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)
	assert.True(t, f.Settled())
}

func TestFutureRejectWins(t *testing.T) {
	f := NewFuture()
	wantErr := errors.New("turn failed")
	f.Reject(wantErr)
	f.Resolve(Response{Text: "ignored"})

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestFutureWaitHonorsContext(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.Settled(), "abandoned wait must not settle the future")

	// Still settles normally afterwards.
	f.Resolve(Response{Text: "late but fine"})
	resp, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late but fine", resp.Text)
}

func TestFutureConcurrentSettlement(t *testing.T) {
	f := NewFuture()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				f.Resolve(Response{Text: "ok"})
			} else {
				f.Reject(errors.New("boom"))
			}
		}(i)
	}
	wg.Wait()

	// Exactly one outcome, whichever won.
	resp, err := f.Wait(context.Background())
	if err == nil {
		assert.Equal(t, "ok", resp.Text)
	} else {
		assert.EqualError(t, err, "boom")
	}
}

func TestNewEventDefaults(t *testing.T) {
	ev := NewUserEvent("hello")
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "user", ev.Author)
	assert.Equal(t, "hello", ev.Text)
	assert.False(t, ev.Timestamp.IsZero())
}
