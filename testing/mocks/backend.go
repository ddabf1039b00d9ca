package mocks

import (
	"context"
	"sync/atomic"

	"github.com/fwdaemon/devregistry/pkg/discovery"
)

// MockBackend is a discovery.Backend double for testing the reconciler
// and daemon wiring without a real SSH or WebSocket source.
type MockBackend struct {
	BackendName string
	RescanCount atomic.Int64
	ShouldFail  bool
}

// NewMockBackend creates a MockBackend named name.
func NewMockBackend(name string) *MockBackend {
	return &MockBackend{BackendName: name}
}

func (m *MockBackend) Name() string { return m.BackendName }

// Run blocks until ctx is cancelled; it never reports any sightings on
// its own, leaving that to Rescan so tests can trigger it explicitly.
func (m *MockBackend) Run(ctx context.Context, sink discovery.Sink) error {
	<-ctx.Done()
	return nil
}

func (m *MockBackend) Rescan(ctx context.Context, sink discovery.Sink) error {
	m.RescanCount.Add(1)
	if m.ShouldFail {
		return errRescanFailed
	}
	return nil
}

var errRescanFailed = mockError("mock backend rescan failed")

type mockError string

func (e mockError) Error() string { return string(e) }
