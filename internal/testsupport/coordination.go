package testsupport

import (
	"context"
	"errors"
	"sync"

	"sluice/internal/coordination"
)

// FakeCoordination is an in-memory coordination.Client for tests.
type FakeCoordination struct {
	mu         sync.Mutex
	published  []coordination.NodeInfo
	assignment *coordination.Assignment
	publishErr error
	closes     int
}

// NewFakeCoordination returns a fake serving the given assignment.
func NewFakeCoordination(assignment *coordination.Assignment) *FakeCoordination {
	if assignment == nil {
		assignment = &coordination.Assignment{}
	}
	return &FakeCoordination{assignment: assignment}
}

func (f *FakeCoordination) PublishNodeInfo(ctx context.Context, info coordination.NodeInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, info)
	return nil
}

func (f *FakeCoordination) ReadAssignment(ctx context.Context, nodeID string) (*coordination.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignment == nil {
		return nil, errors.New("no assignment configured")
	}
	return f.assignment, nil
}

func (f *FakeCoordination) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

// Published returns a copy of the publish history.
func (f *FakeCoordination) Published() []coordination.NodeInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]coordination.NodeInfo, len(f.published))
	copy(out, f.published)
	return out
}

// Closes returns how many times Close was called.
func (f *FakeCoordination) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// SetPublishError makes subsequent publishes fail with err (nil to recover).
func (f *FakeCoordination) SetPublishError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishErr = err
}

// SetAssignment replaces the served assignment.
func (f *FakeCoordination) SetAssignment(assignment *coordination.Assignment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignment = assignment
}
