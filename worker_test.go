package astirecorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorker(t *testing.T) {
	// Never started
	w := NewWorker()
	require.True(t, w.Wait(time.Millisecond))

	// Start and stop
	var started, stopped bool
	require.True(t, w.Start(context.Background(), func() { started = true }, func(ctx context.Context) {
		<-ctx.Done()
		stopped = true
	}))
	require.True(t, started)
	require.False(t, w.Wait(10*time.Millisecond))
	w.Stop()
	require.True(t, w.Wait(time.Second))
	require.True(t, stopped)

	// Starting twice is a no-op
	var count int
	require.False(t, w.Start(context.Background(), nil, func(ctx context.Context) { count++ }))
	require.True(t, w.Wait(time.Second))
	require.Equal(t, 0, count)

	// Exec func returning stops the worker
	w = NewWorker()
	w.Start(context.Background(), nil, func(ctx context.Context) {})
	require.True(t, w.Wait(time.Second))
	require.Error(t, w.Context().Err())

	// Join timeout
	w = NewWorker()
	block := make(chan struct{})
	w.Start(context.Background(), nil, func(ctx context.Context) { <-block })
	w.Stop()
	require.False(t, w.Wait(20*time.Millisecond))
	close(block)
	require.True(t, w.Wait(time.Second))

	// Done context
	w = NewWorker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, w.Start(ctx, func() { count++ }, func(ctx context.Context) { count++ }))
	require.True(t, w.Wait(time.Millisecond))
	require.Equal(t, 0, count)
}
