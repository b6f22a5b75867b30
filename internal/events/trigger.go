package events

import (
	"context"
	"log/slog"
	"time"

	"sluice/internal/logging"
)

// Trigger enqueues a callback onto a queue at a fixed interval.
//
// A new tick always joins the FIFO tail even if the prior invocation is still
// running; ticks are never dropped or coalesced.
type Trigger struct {
	queue    *Queue
	callback Callback
	interval time.Duration
	logger   *slog.Logger
}

// NewTrigger constructs a trigger for queue and callback.
func NewTrigger(queue *Queue, callback Callback, interval time.Duration, logger *slog.Logger) *Trigger {
	return &Trigger{
		queue:    queue,
		callback: callback,
		interval: interval,
		logger: logging.NewComponentLogger(logger, "trigger").
			With(logging.String(logging.FieldQueue, queue.Name())),
	}
}

// Run sleeps the interval, enqueues the callback, and repeats until ctx is
// cancelled. Cancellation is cooperative: it is observed at the sleep
// boundary, never mid-enqueue.
func (t *Trigger) Run(ctx context.Context) {
	t.logger.Debug("trigger started", logging.Duration("interval", t.interval))
	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("trigger stopped")
			return
		case <-time.After(t.interval):
			t.queue.Enqueue(t.callback)
		}
	}
}
