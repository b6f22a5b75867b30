package supervisorrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"sluice/internal/config"
	"sluice/internal/logging"
	"sluice/internal/supervisor"
)

// Options configures the daemon process runtime.
type Options struct {
	LogLevel    string
	Development bool

	// Supervisor wiring, injectable for tests.
	Supervisor supervisor.Options
}

// Run starts the supervisor runtime loop. It returns nil on a clean shutdown
// and an error for unrecoverable bootstrap failures; the caller maps an error
// to exit code 1.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	// Termination signals flow through this context into Manager.Shutdown,
	// which keeps shutdown testable without delivering real signals.
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logPath := filepath.Join(cfg.Paths.LogDir, "sluiced.log")
	logger, err := logging.New(logging.Options{
		Level:       firstNonEmpty(opts.LogLevel, cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	// The pid file is written before anything else starts; a node that
	// cannot record its pid must not run any background loops.
	pidPath := cfg.PidFile()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	mgr, err := supervisor.Bootstrap(signalCtx, cfg, logger, opts.Supervisor)
	if err != nil {
		logger.Error("supervisor bootstrap failed", logging.Error(err))
		return err
	}

	go func() {
		<-signalCtx.Done()
		mgr.Shutdown()
	}()

	// Poll once per second until the manager reports full termination.
	for !mgr.Finished() {
		select {
		case <-mgr.Done():
		case <-time.After(time.Second):
		}
	}

	logger.Info("sluiced exiting")
	return nil
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
