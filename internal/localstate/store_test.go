package localstate_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"sluice/internal/localstate"
)

func openStore(t *testing.T) *localstate.Store {
	t.Helper()
	store, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("localstate.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestPutGetDelete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, localstate.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	value, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "v2" {
		t.Fatalf("expected overwritten value, got %q", string(value))
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, localstate.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
}

func TestEnsureNodeIDStableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	ctx := context.Background()

	store, err := localstate.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first, err := store.EnsureNodeID(ctx)
	if err != nil {
		t.Fatalf("EnsureNodeID: %v", err)
	}
	if first == "" {
		t.Fatal("expected generated node id")
	}
	again, err := store.EnsureNodeID(ctx)
	if err != nil {
		t.Fatalf("EnsureNodeID second call: %v", err)
	}
	if again != first {
		t.Fatalf("node id changed within a session: %q vs %q", first, again)
	}
	store.Close()

	reopened, err := localstate.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	restored, err := reopened.EnsureNodeID(ctx)
	if err != nil {
		t.Fatalf("EnsureNodeID after reopen: %v", err)
	}
	if restored != first {
		t.Fatalf("node id not stable across restarts: %q vs %q", first, restored)
	}
}

func TestConcurrentWriters(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := []byte{byte('a' + n)}
			for j := 0; j < 20; j++ {
				if err := store.Put(ctx, string(key), []byte{byte(j)}); err != nil {
					t.Errorf("Put: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		key := string([]byte{byte('a' + i)})
		value, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get %q: %v", key, err)
		}
		if len(value) != 1 || value[0] != 19 {
			t.Fatalf("unexpected final value for %q: %v", key, value)
		}
	}
}
