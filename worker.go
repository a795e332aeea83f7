package astirecorder

import (
	"context"
	"sync"
	"time"
)

// Worker represents a unit of execution that can start, stop and be joined
type Worker struct {
	cancel context.CancelFunc
	ctx    context.Context
	done   chan struct{}
	m      *sync.Mutex
	oStart *sync.Once
	oStop  *sync.Once
}

// NewWorker creates a new worker
func NewWorker() *Worker {
	return &Worker{
		m:      &sync.Mutex{},
		oStart: &sync.Once{},
		oStop:  &sync.Once{},
	}
}

// Context returns the worker context
func (w *Worker) Context() context.Context {
	w.m.Lock()
	defer w.m.Unlock()
	return w.ctx
}

// Start starts the worker. execFunc is executed in a goroutine and must return
// once the worker context is done. It returns false if the worker was already
// started or if ctx is already done, in which case execFunc never runs.
func (w *Worker) Start(ctx context.Context, startFunc func(), execFunc func(ctx context.Context)) (started bool) {
	// Make sure the worker can only be started once
	w.oStart.Do(func() {
		// Check context
		if ctx.Err() != nil {
			return
		}

		// Reset context
		w.m.Lock()
		w.ctx, w.cancel = context.WithCancel(ctx)
		w.done = make(chan struct{})
		ctx, done := w.ctx, w.done
		w.m.Unlock()

		started = true

		// Start func
		if startFunc != nil {
			startFunc()
		}

		// Execute the rest in a goroutine
		go func() {
			// Worker is done
			defer close(done)

			// Make sure the worker is stopped properly
			defer w.Stop()

			// Exec func
			execFunc(ctx)
		}()
	})
	return
}

// Stop stops the worker without waiting for it
func (w *Worker) Stop() {
	// Make sure the worker can only be stopped once
	w.oStop.Do(func() {
		w.m.Lock()
		defer w.m.Unlock()
		if w.cancel != nil {
			w.cancel()
		}
	})
}

// Wait waits for the worker to be done. It returns false if timeout is reached
// first. A timeout <= 0 waits forever.
func (w *Worker) Wait(timeout time.Duration) bool {
	// Get done chan
	w.m.Lock()
	done := w.done
	w.m.Unlock()

	// Worker was never started
	if done == nil {
		return true
	}

	// No timeout
	if timeout <= 0 {
		<-done
		return true
	}

	// Create timer
	t := time.NewTimer(timeout)
	defer t.Stop()

	// Wait
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}
