package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameBudget is the time each turn may use before yielding.
const DefaultFrameBudget = 8 * time.Millisecond

// Loop is a Driver that runs turns on the goroutine calling Run. Turns and
// dispatched functions are serialized, so everything a Root does happens on
// one goroutine.
type Loop struct {
	budget  time.Duration
	logger  *slog.Logger
	queueSz int

	dispatchCh chan func()
	turnCh     chan struct{}

	mu    sync.Mutex
	turns []Turn

	running atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameBudget sets the per-turn time budget.
func WithFrameBudget(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.budget = d
		}
	}
}

// WithLoopLogger sets the logger for recovered panics.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the capacity of the dispatch queue.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.queueSz = n
		}
	}
}

// NewLoop creates a Loop. Call Run to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		budget:  DefaultFrameBudget,
		logger:  slog.Default(),
		queueSz: 256,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.dispatchCh = make(chan func(), l.queueSz)
	l.turnCh = make(chan struct{}, 1)
	return l
}

// RequestTurn implements Driver. It is safe to call from any goroutine.
func (l *Loop) RequestTurn(fn Turn) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	l.turns = append(l.turns, fn)
	l.mu.Unlock()

	select {
	case l.turnCh <- struct{}{}:
	default:
	}
}

// Dispatch queues fn to run on the loop goroutine. It blocks while the queue
// is full and fails once the loop has stopped.
func (l *Loop) Dispatch(fn func()) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	select {
	case l.dispatchCh <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Call runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Dispatch(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes turns and dispatched functions until ctx is cancelled.
// It returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer func() {
		l.closed.Store(true)
		close(l.done)
	}()

	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)

		case <-l.turnCh:
			l.runTurns()

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) runTurns() {
	l.mu.Lock()
	turns := l.turns
	l.turns = nil
	l.mu.Unlock()

	for _, fn := range turns {
		deadline := Budget(l.budget)
		l.execute(func() { fn(deadline) })
	}
}

// execute runs fn, recovering and logging a panic so the loop survives.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
