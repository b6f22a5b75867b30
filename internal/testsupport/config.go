package testsupport

import (
	"path/filepath"
	"testing"

	"sluice/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Local mode is enabled so no monitoring server binds unless a test opts in.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.LocalMode = true
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.PidDir = filepath.Join(base, "run")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Monitor.Bind = "127.0.0.1:0"
	cfg.Coordination.Endpoint = "127.0.0.1:1"
	cfg.Coordination.ConnectTimeoutSeconds = 1
	cfg.Coordination.RequestTimeoutSeconds = 1
	cfg.Heartbeat.IntervalSeconds = 3600
	cfg.Sync.SupervisorIntervalSeconds = 3600
	cfg.Sync.ShutdownGraceSeconds = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMonitor enables the monitoring server on an ephemeral port.
func WithMonitor() ConfigOption {
	return func(cfg *config.Config) {
		cfg.LocalMode = false
		cfg.Monitor.Bind = "127.0.0.1:0"
	}
}

// WithSyncInterval sets the supervisor-sync cadence in seconds.
func WithSyncInterval(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.SupervisorIntervalSeconds = seconds
	}
}

// WithContainerDir enables the container heartbeat bridge.
func WithContainerDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Heartbeat.ContainerDir = dir
	}
}
