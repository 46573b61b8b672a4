package task

import (
	"context"
	"sync"
)

// Handle is the result handle of a submitted task. It is created at
// submission time and settled exactly once, with either the operation's
// value or its error. Value and Err may only be read after Done is closed;
// Wait combines the two for convenience.
type Handle struct {
	done chan struct{}
	once sync.Once

	// value and err are written exactly once, before done is closed.
	value any
	err   error

	// cancel is installed by the scheduler at submission time. It removes
	// the task from the queue if still waiting, or cancels the running
	// operation's context.
	cancel func()
}

func newHandle() *Handle {
	return &Handle{
		done: make(chan struct{}),
	}
}

// Done returns a channel that is closed when the handle settles.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Value returns the operation's result. It must only be called after the
// channel returned by Done is closed.
func (h *Handle) Value() any {
	return h.value
}

// Err returns the operation's error, if any. It must only be called after
// the channel returned by Done is closed.
func (h *Handle) Err() error {
	return h.err
}

// Wait blocks until the handle settles or ctx is done. A ctx error abandons
// the wait only; the task itself keeps running.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests cancellation of the task. A still-queued task is removed
// from the queue and its handle settles with ErrTaskCanceled; a running
// task has its operation context canceled, and the handle settles with
// whatever the operation returns. Cancel after settlement is a no-op.
func (h *Handle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// settle records the outcome and closes the done channel. The once guard
// makes double settlement impossible even if cancellation races completion.
func (h *Handle) settle(value any, err error) {
	h.once.Do(func() {
		h.value = value
		h.err = err
		close(h.done)
	})
}
