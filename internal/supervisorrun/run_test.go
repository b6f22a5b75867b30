package supervisorrun_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"sluice/internal/coordination"
	"sluice/internal/supervisor"
	"sluice/internal/supervisorrun"
	"sluice/internal/testsupport"
)

func options(fake *testsupport.FakeCoordination) supervisorrun.Options {
	return supervisorrun.Options{
		LogLevel: "error",
		Supervisor: supervisor.Options{
			Connector: func(ctx context.Context, cfg coordination.Config, logger *slog.Logger) (coordination.Client, error) {
				return fake, nil
			},
		},
	}
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeCoordination(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- supervisorrun.Run(ctx, cfg, options(fake))
	}()

	// Wait until the daemon is up (pid file exists), then request shutdown.
	deadline := time.After(5 * time.Second)
	for {
		if _, err := os.Stat(cfg.PidFile()); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pid file never appeared")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not exit after cancellation")
	}

	if _, err := os.Stat(cfg.PidFile()); !os.IsNotExist(err) {
		t.Fatalf("pid file not removed on exit: %v", err)
	}
	if fake.Closes() != 1 {
		t.Fatalf("expected one coordination client close, got %d", fake.Closes())
	}
}

func TestRunFailsWhenPidFileUnwritable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := testsupport.NewFakeCoordination(nil)

	// A directory at the pid file path makes the write fail before any
	// component starts.
	if err := os.MkdirAll(cfg.PidFile(), 0o755); err != nil {
		t.Fatalf("mkdir at pid path: %v", err)
	}

	err := supervisorrun.Run(context.Background(), cfg, options(fake))
	if err == nil {
		t.Fatal("expected error for unwritable pid file")
	}
	if got := len(fake.Published()); got != 0 {
		t.Fatalf("expected zero background activity, saw %d publishes", got)
	}
	if fake.Closes() != 0 {
		t.Fatal("coordination client was dialed despite pid failure")
	}
}
