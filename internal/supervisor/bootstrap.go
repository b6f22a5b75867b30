package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
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

// Queue names used for logging and metrics labels.
const (
	ProcessQueueName    = "process-sync"
	SupervisorQueueName = "supervisor-sync"
)

// Connector dials the coordination service. Injectable for tests.
type Connector func(ctx context.Context, cfg coordination.Config, logger *slog.Logger) (coordination.Client, error)

// Callbacks carries the externally supplied synchronization units.
type Callbacks struct {
	// ProcessSync reconciles running worker processes against the persisted
	// assignment. It may read and write the worker pid table and local state.
	ProcessSync events.Callback
	// SupervisorSync overrides the default supervisor synchronization shell.
	// When nil, the default reads the assignment, persists the snapshot,
	// refreshes the heartbeat, and enqueues ProcessSync.
	SupervisorSync events.Callback
}

// Options configures Bootstrap beyond the file configuration.
type Options struct {
	Connector Connector
	Callbacks Callbacks
}

// Bootstrap performs one-time setup and starts every supervisor loop in
// dependency order, returning the Manager that owns them. Any failure stops
// the components already started before the error propagates.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("supervisor: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	connector := opts.Connector
	if connector == nil {
		connector = coordination.Connect
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if err := clearTempDir(cfg.TempDir()); err != nil {
		return nil, err
	}

	// One supervisor per node.
	lock := flock.New(cfg.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another sluice supervisor instance is already running")
	}

	// Components started so far, stopped in reverse order when a later step
	// fails. There is no automatic unwind beyond this list.
	var unwind []func()
	fail := func(err error) (*Manager, error) {
		for i := len(unwind) - 1; i >= 0; i-- {
			unwind[i]()
		}
		_ = lock.Unlock()
		return nil, err
	}

	client, err := connector(ctx, coordination.Config{
		Endpoint:       cfg.Coordination.Endpoint,
		ConnectTimeout: cfg.ConnectTimeout(),
		RequestTimeout: cfg.RequestTimeout(),
	}, logger)
	if err != nil {
		return fail(fmt.Errorf("coordination service unreachable: %w", err))
	}
	unwind = append(unwind, func() { _ = client.Close() })

	state, err := localstate.Open(cfg.StatePath())
	if err != nil {
		return fail(fmt.Errorf("open local state: %w", err))
	}
	unwind = append(unwind, func() { _ = state.Close() })

	nodeID, err := state.EnsureNodeID(ctx)
	if err != nil {
		return fail(err)
	}
	logger = logger.With(logging.String(logging.FieldNodeID, nodeID))
	logger.Info("starting supervisor", logging.String("state_path", state.Path()))

	runCtx, cancel := context.WithCancel(ctx)

	metrics := monitor.NewCollectors()
	workers := pidtable.New()

	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		nodeID:   nodeID,
		client:   client,
		state:    state,
		lock:     lock,
		workers:  workers,
		metrics:  metrics,
		started:  time.Now(),
		hostname: hostnameOrUnknown(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	unwind = append(unwind, func() {
		cancel()
		m.wg.Wait()
	})

	// Heartbeat first: one synchronous publish makes the node visible to the
	// cluster before any periodic tick fires.
	m.hb = heartbeat.NewLoop(client, nodeID, cfg.HeartbeatInterval(), workers, logger, metrics)
	if err := m.hb.Update(ctx); err != nil {
		return fail(fmt.Errorf("initial heartbeat publish: %w", err))
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.hb.Run(runCtx)
	}()

	// Optional container-manager relay; absence is a normal condition.
	m.bridge = containerhb.New(cfg.Heartbeat.ContainerDir, cfg.HeartbeatInterval(), logger)
	if m.bridge != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.bridge.Run(runCtx)
		}()
	}

	m.processQueue = events.NewQueue(ProcessQueueName, logger, metrics)
	if err := m.processQueue.Start(runCtx); err != nil {
		return fail(err)
	}
	unwind = append(unwind, func() { _ = m.processQueue.Close(context.Background()) })

	supervisorSync := opts.Callbacks.SupervisorSync
	if supervisorSync == nil {
		supervisorSync = m.defaultSupervisorSync(opts.Callbacks.ProcessSync)
	}
	m.supervisorQueue = events.NewQueue(SupervisorQueueName, logger, metrics)
	if err := m.supervisorQueue.Start(runCtx); err != nil {
		return fail(err)
	}
	unwind = append(unwind, func() { _ = m.supervisorQueue.Close(context.Background()) })

	trigger := events.NewTrigger(m.supervisorQueue, supervisorSync, cfg.SupervisorSyncInterval(), logger)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		trigger.Run(runCtx)
	}()

	if !cfg.LocalMode {
		m.monitorSrv = monitor.NewServer(cfg.Monitor.Bind, m, metrics, logger)
		if err := m.monitorSrv.Start(); err != nil {
			return fail(err)
		}
	}

	logger.Info("supervisor started",
		logging.String(logging.FieldEventType, "supervisor_started"),
		logging.Bool("local_mode", cfg.LocalMode),
		logging.Bool("container_heartbeat", m.bridge != nil),
	)
	return m, nil
}

// clearTempDir removes the contents of the scratch directory. A missing
// directory is tolerated; contents that cannot be removed are fatal.
func clearTempDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.MkdirAll(dir, 0o755)
		}
		return fmt.Errorf("read temp dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("clear temp dir entry %s: %w", entry.Name(), err)
		}
	}
	return nil
}
