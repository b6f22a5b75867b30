package supervisor_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"sluice/internal/coordination"
	"sluice/internal/localstate"
	"sluice/internal/logging"
	"sluice/internal/supervisor"
	"sluice/internal/testsupport"
)

func fakeConnector(fake *testsupport.FakeCoordination) supervisor.Connector {
	return func(ctx context.Context, cfg coordination.Config, logger *slog.Logger) (coordination.Client, error) {
		return fake, nil
	}
}

func TestBootstrapReturnsRunningManager(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeCoordination(nil)

	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer mgr.Shutdown()

	if mgr.Finished() {
		t.Fatal("manager finished immediately after bootstrap")
	}
	if mgr.Phase() != supervisor.PhaseRunning {
		t.Fatalf("expected running phase, got %s", mgr.Phase())
	}
	if mgr.NodeID() == "" {
		t.Fatal("expected a node identity")
	}

	// Intervals are hours in test config, so the only publish is the
	// synchronous one bootstrap performs before returning.
	published := fake.Published()
	if len(published) != 1 {
		t.Fatalf("expected exactly one initial publish, got %d", len(published))
	}
	if published[0].NodeID != mgr.NodeID() {
		t.Fatalf("published identity %q does not match manager %q", published[0].NodeID, mgr.NodeID())
	}
}

func TestNodeIDStableAcrossRestarts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeCoordination(nil)

	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	first := mgr.NodeID()
	mgr.Shutdown()

	mgr2, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	defer mgr2.Shutdown()

	if mgr2.NodeID() != first {
		t.Fatalf("node identity changed across restarts: %q vs %q", first, mgr2.NodeID())
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeCoordination(nil)

	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	mgr.Shutdown()
	if !mgr.Finished() {
		t.Fatal("expected finished after shutdown")
	}

	start := time.Now()
	mgr.Shutdown()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("second shutdown took %v, expected prompt no-op", elapsed)
	}
	if fake.Closes() != 1 {
		t.Fatalf("expected exactly one client close, got %d", fake.Closes())
	}

	select {
	case <-mgr.Done():
	default:
		t.Fatal("Done channel not closed after shutdown")
	}
}

func TestBootstrapClearsTempDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.TempDir(), 0o755); err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	leftover := filepath.Join(cfg.TempDir(), "stale-download")
	if err := os.WriteFile(leftover, []byte("junk"), 0o644); err != nil {
		t.Fatalf("write leftover: %v", err)
	}

	fake := testsupport.NewFakeCoordination(nil)
	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer mgr.Shutdown()

	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("expected leftover cleared, stat err=%v", err)
	}
}

func TestBootstrapFailureUnwindsStartedComponents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LocalMode = false
	cfg.Monitor.Bind = "203.0.113.1:1" // non-local TEST-NET address, bind must fail

	fake := testsupport.NewFakeCoordination(nil)
	_, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err == nil {
		t.Fatal("expected bootstrap failure from unbindable monitor address")
	}
	if fake.Closes() != 1 {
		t.Fatalf("expected coordination client closed during unwind, closes=%d", fake.Closes())
	}

	// The instance lock must have been released so a retry can proceed.
	lock := flock.New(cfg.LockFile())
	locked, lockErr := lock.TryLock()
	if lockErr != nil || !locked {
		t.Fatalf("instance lock still held after failed bootstrap (locked=%v err=%v)", locked, lockErr)
	}
	lock.Unlock()
}

func TestBootstrapFailsWhenCoordinationUnreachable(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	// No injected connector: the real dialer hits a closed port and must give
	// up within the configured one-second budget.
	_, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{})
	if err == nil {
		t.Fatal("expected bootstrap failure for unreachable coordination service")
	}
}

func TestSupervisorSyncPersistsAssignmentAndEnqueuesProcessSync(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSyncInterval(1))
	want := &coordination.Assignment{
		Version: 7,
		Workers: []coordination.WorkerSpec{{WorkerID: "w-1", Topology: "wordcount", Port: 6701}},
	}
	fake := testsupport.NewFakeCoordination(want)

	var processRuns atomic.Int32
	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
		Callbacks: supervisor.Callbacks{
			ProcessSync: func(ctx context.Context) error {
				processRuns.Add(1)
				return nil
			},
		},
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer mgr.Shutdown()

	deadline := time.After(5 * time.Second)
	for processRuns.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("process-sync callback never ran")
		case <-time.After(20 * time.Millisecond):
		}
	}

	if got := mgr.Status().AssignmentVersion; got != 7 {
		t.Fatalf("status assignment version %d, want 7", got)
	}
	assignment, err := mgr.Assignment(context.Background())
	if err != nil {
		t.Fatalf("Assignment: %v", err)
	}
	if assignment.Version != 7 || len(assignment.Workers) != 1 {
		t.Fatalf("unexpected assignment %+v", assignment)
	}

	// The snapshot must survive in durable state for crash recovery.
	mgr.Shutdown()
	state, err := localstate.Open(cfg.StatePath())
	if err != nil {
		t.Fatalf("reopen state: %v", err)
	}
	defer state.Close()
	payload, err := state.Get(context.Background(), localstate.KeyAssignment)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var persisted coordination.Assignment
	if err := json.Unmarshal(payload, &persisted); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if persisted.Version != 7 {
		t.Fatalf("persisted snapshot version %d, want 7", persisted.Version)
	}
}

func TestMonitorServesStatusAndStopsOnShutdown(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMonitor())
	fake := testsupport.NewFakeCoordination(nil)

	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	addr := mgr.MonitorAddr()
	if addr == "" {
		t.Fatal("expected monitoring server address")
	}
	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	mgr.Shutdown()
	if _, err := http.Get("http://" + addr + "/healthz"); err == nil {
		t.Fatal("monitoring server still reachable after shutdown")
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeCoordination(nil)

	mgr, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	defer mgr.Shutdown()

	if _, err := supervisor.Bootstrap(context.Background(), cfg, logging.NewNop(), supervisor.Options{
		Connector: fakeConnector(fake),
	}); err == nil {
		t.Fatal("expected second bootstrap on same node to be refused")
	}
}
