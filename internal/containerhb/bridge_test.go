package containerhb_test

import (
	"os"
	"testing"
	"time"

	"sluice/internal/containerhb"
	"sluice/internal/logging"
)

func TestNewWithoutDirectoryReturnsNil(t *testing.T) {
	if bridge := containerhb.New("", time.Second, logging.NewNop()); bridge != nil {
		t.Fatal("expected nil bridge when container dir is unset")
	}
	if bridge := containerhb.New("   ", time.Second, logging.NewNop()); bridge != nil {
		t.Fatal("expected nil bridge for blank container dir")
	}
}

func TestBeatWritesTimestamp(t *testing.T) {
	dir := t.TempDir()
	bridge := containerhb.New(dir, time.Second, logging.NewNop())
	if bridge == nil {
		t.Fatal("expected bridge")
	}

	if err := bridge.Beat(); err != nil {
		t.Fatalf("Beat: %v", err)
	}
	data, err := os.ReadFile(bridge.Path())
	if err != nil {
		t.Fatalf("read heartbeat file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected timestamp contents")
	}

	// A second beat overwrites rather than appends.
	if err := bridge.Beat(); err != nil {
		t.Fatalf("second Beat: %v", err)
	}
}
