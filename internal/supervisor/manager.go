package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"sluice/internal/config"
	"sluice/internal/containerhb"
	"sluice/internal/coordination"
	"sluice/internal/events"
	"sluice/internal/heartbeat"
	"sluice/internal/localstate"
	"sluice/internal/logging"
	"sluice/internal/monitor"
	"sluice/internal/pidtable"
)

// Phase is the lifecycle state of the Manager.
type Phase int32

const (
	PhaseRunning Phase = iota
	PhaseShuttingDown
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Manager owns every background loop and resource of the supervisor. It is
// returned by Bootstrap and shut down exactly once.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	nodeID string

	client  coordination.Client
	state   *localstate.Store
	lock    *flock.Flock
	workers *pidtable.Table
	metrics *monitor.Collectors

	hb              *heartbeat.Loop
	bridge          *containerhb.Bridge
	processQueue    *events.Queue
	supervisorQueue *events.Queue
	monitorSrv      *monitor.Server

	lastAssignment atomic.Pointer[coordination.Assignment]

	started  time.Time
	hostname string

	cancel context.CancelFunc
	wg     sync.WaitGroup

	phase atomic.Int32
	done  chan struct{}
}

// NodeID returns the stable node identity.
func (m *Manager) NodeID() string {
	return m.nodeID
}

// Workers returns the worker pid table.
func (m *Manager) Workers() *pidtable.Table {
	return m.workers
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase {
	return Phase(m.phase.Load())
}

// Finished reports whether shutdown has fully completed. It never blocks and
// is monotonic: once true it stays true.
func (m *Manager) Finished() bool {
	return m.Phase() == PhaseFinished
}

// Done returns a channel closed when shutdown completes.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// MonitorAddr returns the monitoring server address, or "" in local mode.
func (m *Manager) MonitorAddr() string {
	if m.monitorSrv == nil {
		return ""
	}
	return m.monitorSrv.Addr()
}

// Shutdown stops every owned loop and resource. The first call runs the full
// termination sequence; subsequent calls return promptly as no-ops. Each
// sub-resource failure is logged individually and never blocks the others.
func (m *Manager) Shutdown() {
	if !m.phase.CompareAndSwap(int32(PhaseRunning), int32(PhaseShuttingDown)) {
		return
	}
	m.logger.Info("supervisor shutting down", logging.String(logging.FieldEventType, "shutdown_started"))

	// Suppress the next iteration of every loop; in-flight work finishes.
	m.cancel()

	graceCtx, cancelGrace := context.WithTimeout(context.Background(), m.cfg.ShutdownGrace())
	defer cancelGrace()
	if err := m.supervisorQueue.Close(graceCtx); err != nil {
		m.logger.Warn("supervisor-sync queue did not drain in time", logging.Error(err))
	}
	if err := m.processQueue.Close(graceCtx); err != nil {
		m.logger.Warn("process-sync queue did not drain in time", logging.Error(err))
	}
	m.wg.Wait()

	if m.monitorSrv != nil {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.monitorSrv.Shutdown(stopCtx); err != nil {
			m.logger.Warn("monitoring server shutdown failed", logging.Error(err))
		}
		cancelStop()
	}

	m.workers.TerminateAll(m.logger)

	if err := m.client.Close(); err != nil {
		m.logger.Warn("coordination client close failed", logging.Error(err))
	}
	if err := m.state.Close(); err != nil {
		m.logger.Warn("local state close failed", logging.Error(err))
	}
	if m.lock != nil {
		if err := m.lock.Unlock(); err != nil {
			m.logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}

	m.phase.Store(int32(PhaseFinished))
	close(m.done)
	m.logger.Info("supervisor shutdown complete", logging.String(logging.FieldEventType, "shutdown_finished"))
}

// Status implements monitor.StatusSource.
func (m *Manager) Status() monitor.Status {
	status := monitor.Status{
		NodeID:        m.nodeID,
		Phase:         m.Phase().String(),
		Hostname:      m.hostname,
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Workers:       m.workers.Snapshot(),
		QueueDepths: map[string]int{
			m.processQueue.Name():    m.processQueue.Len(),
			m.supervisorQueue.Name(): m.supervisorQueue.Len(),
		},
	}
	if assignment := m.lastAssignment.Load(); assignment != nil {
		status.AssignmentVersion = assignment.Version
	}
	return status
}

// Assignment implements monitor.StatusSource. It serves the last snapshot the
// supervisor-sync loop persisted, falling back to a live read when no
// snapshot exists yet.
func (m *Manager) Assignment(ctx context.Context) (*coordination.Assignment, error) {
	if assignment := m.lastAssignment.Load(); assignment != nil {
		return assignment, nil
	}
	payload, err := m.state.Get(ctx, localstate.KeyAssignment)
	if err == nil {
		var assignment coordination.Assignment
		if err := json.Unmarshal(payload, &assignment); err == nil {
			return &assignment, nil
		}
	} else if !errors.Is(err, localstate.ErrNotFound) {
		return nil, err
	}
	return m.client.ReadAssignment(ctx, m.nodeID)
}

func hostnameOrUnknown() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
