package heartbeat

import (
	"context"
	"log/slog"
	"os"
	"time"

	"sluice/internal/coordination"
	"sluice/internal/logging"
)

// Observer receives publish outcomes; used for metrics.
type Observer interface {
	HeartbeatPublished(err error)
}

// WorkerCounter reports how many workers the node currently tracks.
type WorkerCounter interface {
	Len() int
}

// Loop periodically publishes the node's liveness/info record.
type Loop struct {
	client   coordination.Client
	nodeID   string
	interval time.Duration
	logger   *slog.Logger
	observer Observer
	workers  WorkerCounter

	hostname string
	started  time.Time
}

// NewLoop constructs a heartbeat loop for nodeID.
func NewLoop(client coordination.Client, nodeID string, interval time.Duration, workers WorkerCounter, logger *slog.Logger, observer Observer) *Loop {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Loop{
		client:   client,
		nodeID:   nodeID,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "heartbeat").With(logging.String(logging.FieldNodeID, nodeID)),
		observer: observer,
		workers:  workers,
		hostname: hostname,
		started:  time.Now(),
	}
}

// Update builds and publishes the liveness record once, synchronously.
func (l *Loop) Update(ctx context.Context) error {
	info := coordination.NodeInfo{
		NodeID:        l.nodeID,
		Hostname:      l.hostname,
		Time:          time.Now().UTC(),
		UptimeSeconds: int64(time.Since(l.started).Seconds()),
	}
	if l.workers != nil {
		info.WorkerCount = l.workers.Len()
	}
	err := l.client.PublishNodeInfo(ctx, info)
	if l.observer != nil {
		l.observer.HeartbeatPublished(err)
	}
	return err
}

// Run publishes every interval until ctx is cancelled. Publish failures are
// logged and retried next tick.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("heartbeat loop stopped")
			return
		case <-ticker.C:
			if err := l.Update(ctx); err != nil {
				l.logger.Warn("heartbeat publish failed; retrying next tick", logging.Error(err))
			}
		}
	}
}
