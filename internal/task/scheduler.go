package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	// MaxConcurrency bounds how many operations may run at the same time.
	// It must be at least 1.
	MaxConcurrency int

	// QueueSize caps how many operations may wait for admission. Zero
	// means the wait queue is unbounded.
	QueueSize int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrency: 4,
		QueueSize:      0,
	}
}

// Stats is a snapshot of scheduler state and lifetime counters.
type Stats struct {
	MaxConcurrency int   `json:"max_concurrency"`
	Running        int   `json:"running"`
	Queued         int   `json:"queued"`
	Submitted      int64 `json:"submitted"`
	Succeeded      int64 `json:"succeeded"`
	Failed         int64 `json:"failed"`
	Canceled       int64 `json:"canceled"`
}

// Scheduler admits submitted operations into execution up to a fixed
// concurrency limit. Operations are admitted from the wait queue in FIFO
// order; each completion re-triggers admission, so the number of running
// operations never exceeds the limit. The scheduler is the sole mutator of
// the running count and the queue; all bookkeeping runs under one mutex.
type Scheduler struct {
	cfg    SchedulerConfig
	logger *slog.Logger

	mu      sync.Mutex
	queue   waitQueue
	running int
	closed  bool

	submitted int64
	succeeded int64
	failed    int64
	canceled  int64

	// wg tracks running operations for Close.
	wg sync.WaitGroup

	// failureHandler, if set, observes every operation failure. It exists
	// so failures are not silently lost when nobody reads the handle.
	failureHandler func(err error)
}

// NewScheduler creates a new Scheduler.
// Returns ErrInvalidConcurrency if the concurrency limit is below one.
func NewScheduler(cfg SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	if cfg.MaxConcurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, cfg.MaxConcurrency)
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}

	return &Scheduler{
		cfg:    cfg,
		logger: logger.With("component", "scheduler"),
	}, nil
}

// SetFailureHandler installs a hook that is called with every operation
// failure, after the corresponding handle has settled. It must be set
// before the first Submit.
func (s *Scheduler) SetFailureHandler(handler func(err error)) {
	s.failureHandler = handler
}

// Submit wraps the operation in a task entry, enqueues it, immediately
// attempts admission, and returns the task's handle without blocking.
// The provided ctx covers submission only; the operation itself receives
// a per-task context controlled by Handle.Cancel and Close.
func (s *Scheduler) Submit(ctx context.Context, op Operation) (*Handle, error) {
	if op == nil {
		return nil, ErrNilOperation
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := &taskEntry{
		op:     op,
		handle: newHandle(),
		state:  stateQueued,
	}
	e.handle.cancel = func() { s.cancelEntry(e) }

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	// The bound applies to waiting tasks only; a submission that will be
	// admitted immediately never counts against it.
	if s.cfg.QueueSize > 0 && s.running >= s.cfg.MaxConcurrency &&
		s.queue.len() >= s.cfg.QueueSize {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, s.cfg.QueueSize)
	}

	s.queue.pushBack(e)
	s.submitted++
	s.admitLocked()
	s.mu.Unlock()

	return e.handle, nil
}

// Stats returns a snapshot of current scheduler state.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		MaxConcurrency: s.cfg.MaxConcurrency,
		Running:        s.running,
		Queued:         s.queue.len(),
		Submitted:      s.submitted,
		Succeeded:      s.succeeded,
		Failed:         s.failed,
		Canceled:       s.canceled,
	}
}

// Close stops admission, settles all still-queued handles with
// ErrSchedulerClosed, and waits for in-flight operations to finish.
// Submit after Close returns ErrSchedulerClosed. Close is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true

	var drained []*taskEntry
	for e := s.queue.popFront(); e != nil; e = s.queue.popFront() {
		e.state = stateSettled
		drained = append(drained, e)
	}
	s.mu.Unlock()

	for _, e := range drained {
		e.handle.settle(nil, ErrSchedulerClosed)
	}
	if len(drained) > 0 {
		s.logger.Info("drained queued tasks on close", "count", len(drained))
	}

	s.wg.Wait()
}

// admitLocked dequeues and starts tasks while a slot is free and the queue
// is non-empty. Callers must hold s.mu. Starting the operation happens on a
// new goroutine; everything here is non-blocking, so admission bookkeeping
// is atomic with respect to other scheduler operations.
func (s *Scheduler) admitLocked() {
	for s.running < s.cfg.MaxConcurrency {
		e := s.queue.popFront()
		if e == nil {
			return
		}
		runCtx, cancel := context.WithCancel(context.Background())
		e.state = stateRunning
		e.cancelRun = cancel
		s.running++
		s.wg.Add(1)
		go s.run(e, runCtx, cancel)
	}
}

// run executes one admitted operation and performs completion bookkeeping:
// settle the handle with the outcome, release the slot, and re-run
// admission, which may admit exactly one more task.
func (s *Scheduler) run(e *taskEntry, ctx context.Context, cancel context.CancelFunc) {
	defer s.wg.Done()
	defer cancel()

	value, err := s.invoke(e.op, ctx)

	s.mu.Lock()
	e.state = stateSettled
	s.running--
	if err != nil {
		s.failed++
	} else {
		s.succeeded++
	}
	s.admitLocked()
	s.mu.Unlock()

	e.handle.settle(value, err)

	if err != nil {
		s.logger.Debug("task failed", "error", err)
		if s.failureHandler != nil {
			s.failureHandler(err)
		}
	}
}

// invoke calls the operation, converting a panic into an error so a
// misbehaving task cannot take down the process or leak its slot.
func (s *Scheduler) invoke(op Operation, ctx context.Context) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return op(ctx)
}

// cancelEntry implements Handle.Cancel. A queued entry is unlinked and its
// handle settled with ErrTaskCanceled; a running entry has its operation
// context canceled and settles through the normal completion path.
func (s *Scheduler) cancelEntry(e *taskEntry) {
	s.mu.Lock()
	switch e.state {
	case stateQueued:
		s.queue.remove(e)
		e.state = stateSettled
		s.canceled++
		s.mu.Unlock()
		e.handle.settle(nil, ErrTaskCanceled)

	case stateRunning:
		cancel := e.cancelRun
		s.mu.Unlock()
		cancel()

	default:
		s.mu.Unlock()
	}
}
