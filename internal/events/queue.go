package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"sluice/internal/logging"
)

// Callback is a synchronization unit executed by a Queue. Errors are logged by
// the owning queue and never stop the worker.
type Callback func(ctx context.Context) error

// Observer receives queue activity notifications; used for metrics.
type Observer interface {
	CallbackDone(queue string, err error)
	DepthChanged(queue string, depth int)
}

// Queue executes callbacks strictly one at a time, in enqueue order.
type Queue struct {
	name     string
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Callback
	closed  bool
	running bool

	done chan struct{}
}

// NewQueue constructs a queue. Callbacks enqueued before Start accumulate and
// run once the worker begins.
func NewQueue(name string, logger *slog.Logger, observer Observer) *Queue {
	q := &Queue{
		name:     name,
		logger:   logging.NewComponentLogger(logger, "event-queue").With(logging.String(logging.FieldQueue, name)),
		observer: observer,
		done:     make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Name returns the queue identifier.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends a callback to the FIFO tail. Enqueue after Close is a
// logged no-op.
func (q *Queue) Enqueue(cb Callback) {
	if cb == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Debug("enqueue after close ignored")
		return
	}
	q.pending = append(q.pending, cb)
	depth := len(q.pending)
	q.mu.Unlock()

	if q.observer != nil {
		q.observer.DepthChanged(q.name, depth)
	}
	q.cond.Signal()
}

// Len returns the number of pending callbacks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the worker goroutine. ctx is passed to callbacks so they can
// observe shutdown; cancellation alone does not stop the worker, Close does.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return fmt.Errorf("queue %s already started", q.name)
	}
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue %s already closed", q.name)
	}
	q.running = true
	q.mu.Unlock()

	go q.drain(ctx)
	return nil
}

// Close stops the worker after any in-flight callback completes, then waits
// for it to exit or for graceCtx to expire. Pending callbacks that never ran
// are dropped and counted in the log; a grace expiry abandons the in-flight
// callback and returns an error.
func (q *Queue) Close(graceCtx context.Context) error {
	q.mu.Lock()
	alreadyClosed := q.closed
	q.closed = true
	wasRunning := q.running
	q.mu.Unlock()
	q.cond.Broadcast()

	if alreadyClosed || !wasRunning {
		return nil
	}

	select {
	case <-q.done:
		return nil
	case <-graceCtx.Done():
		return fmt.Errorf("queue %s: callback still running after shutdown grace", q.name)
	}
}

func (q *Queue) drain(ctx context.Context) {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			dropped := len(q.pending)
			q.pending = nil
			q.mu.Unlock()
			if dropped > 0 {
				q.logger.Info("queue stopped with pending callbacks dropped", logging.Int("dropped", dropped))
			}
			return
		}
		cb := q.pending[0]
		q.pending = q.pending[1:]
		depth := len(q.pending)
		q.mu.Unlock()

		if q.observer != nil {
			q.observer.DepthChanged(q.name, depth)
		}
		q.invoke(ctx, cb)
	}
}

func (q *Queue) invoke(ctx context.Context, cb Callback) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
			q.logger.Error("synchronization callback panicked", logging.Any("panic", r))
		}
		if q.observer != nil {
			q.observer.CallbackDone(q.name, err)
		}
	}()

	err = cb(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		q.logger.Error("synchronization callback failed", logging.Error(err))
	}
}
