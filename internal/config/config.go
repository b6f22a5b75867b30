package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for the supervisor.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	PidDir  string `toml:"pid_dir"`
	LogDir  string `toml:"log_dir"`
}

// Coordination contains connection settings for the coordination service.
type Coordination struct {
	Endpoint              string `toml:"endpoint"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Heartbeat configures liveness publishing.
type Heartbeat struct {
	IntervalSeconds int `toml:"interval_seconds"`
	// ContainerDir, when set, enables the container-manager heartbeat bridge.
	ContainerDir string `toml:"container_dir"`
}

// Sync configures the periodic synchronization loops.
type Sync struct {
	SupervisorIntervalSeconds int `toml:"supervisor_interval_seconds"`
	ShutdownGraceSeconds      int `toml:"shutdown_grace_seconds"`
}

// Monitor configures the monitoring HTTP server.
type Monitor struct {
	Bind string `toml:"bind"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root sluice configuration.
type Config struct {
	// LocalMode suppresses the monitoring server; used by tests and
	// single-process development clusters.
	LocalMode bool `toml:"local_mode"`

	Paths        Paths        `toml:"paths"`
	Coordination Coordination `toml:"coordination"`
	Heartbeat    Heartbeat    `toml:"heartbeat"`
	Sync         Sync         `toml:"sync"`
	Monitor      Monitor      `toml:"monitor"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sluice/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	fields := []*string{&c.Paths.WorkDir, &c.Paths.PidDir, &c.Paths.LogDir, &c.Heartbeat.ContainerDir}
	for _, field := range fields {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path must not be empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}

// EnsureDirectories creates the configured directories if they do not exist.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.PidDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TempDir returns the supervisor scratch directory cleared at every startup.
func (c *Config) TempDir() string {
	return filepath.Join(c.Paths.WorkDir, "tmp")
}

// StatePath returns the durable local state database location.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.WorkDir, "state.db")
}

// PidFile returns the daemon pid file location.
func (c *Config) PidFile() string {
	return filepath.Join(c.Paths.PidDir, "sluiced.pid")
}

// LockFile returns the single-instance lock file location.
func (c *Config) LockFile() string {
	return filepath.Join(c.Paths.PidDir, "sluiced.lock")
}

// ConnectTimeout returns the coordination-service dial budget.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Coordination.ConnectTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request coordination deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Coordination.RequestTimeoutSeconds) * time.Second
}

// HeartbeatInterval returns the liveness publish cadence.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat.IntervalSeconds) * time.Second
}

// SupervisorSyncInterval returns the supervisor-sync trigger cadence.
func (c *Config) SupervisorSyncInterval() time.Duration {
	return time.Duration(c.Sync.SupervisorIntervalSeconds) * time.Second
}

// ShutdownGrace returns how long shutdown waits for an in-flight sync callback.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Sync.ShutdownGraceSeconds) * time.Second
}
