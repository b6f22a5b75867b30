package containerhb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sluice/internal/logging"
)

const heartbeatFileName = "supervisor.hb"

// Bridge writes a liveness timestamp into the container manager's directory.
type Bridge struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
}

// New returns a bridge for the configured directory, or nil when dir is empty.
// A nil bridge means the deployment has no container manager; callers treat
// that as a normal condition, not an error.
func New(dir string, interval time.Duration, logger *slog.Logger) *Bridge {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	return &Bridge{
		path:     filepath.Join(dir, heartbeatFileName),
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "container-heartbeat"),
	}
}

// Beat writes the current timestamp once.
func (b *Bridge) Beat() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create container heartbeat directory: %w", err)
	}
	value := strconv.FormatInt(time.Now().Unix(), 10) + "\n"
	if err := os.WriteFile(b.path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write container heartbeat: %w", err)
	}
	return nil
}

// Run beats every interval until ctx is cancelled. Failures are logged and
// retried next tick.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Debug("container heartbeat bridge stopped")
			return
		case <-ticker.C:
			if err := b.Beat(); err != nil {
				b.logger.Warn("container heartbeat failed; retrying next tick", logging.Error(err))
			}
		}
	}
}

// Path returns the heartbeat file location.
func (b *Bridge) Path() string {
	return b.path
}
