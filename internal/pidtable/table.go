package pidtable

import (
	"sort"
	"sync"
)

// Table is a thread-safe mapping from worker identifier to OS process id.
type Table struct {
	mu   sync.RWMutex
	pids map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{pids: make(map[string]int)}
}

// Put records the pid for workerID, replacing any previous entry.
func (t *Table) Put(workerID string, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pids[workerID] = pid
}

// Get returns the pid recorded for workerID.
func (t *Table) Get(workerID string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pid, ok := t.pids[workerID]
	return pid, ok
}

// Delete removes workerID from the table.
func (t *Table) Delete(workerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pids, workerID)
}

// Len returns the number of tracked workers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pids)
}

// Snapshot returns a copy of the table contents.
func (t *Table) Snapshot() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.pids))
	for id, pid := range t.pids {
		out[id] = pid
	}
	return out
}

// WorkerIDs returns the tracked worker identifiers in sorted order.
func (t *Table) WorkerIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.pids))
	for id := range t.pids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
