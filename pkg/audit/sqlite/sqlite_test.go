package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/events"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := New(&Config{Path: ":memory:", QueueSize: 16})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestHandleRecordsRow(t *testing.T) {
	w := newTestWriter(t)
	d := core.NewSimpleDevice("device-1", "guid-a", "guid-b")

	w.Handle(events.Event{Kind: events.KindAdded, Device: d, Timestamp: time.Now()})
	w.Close()

	n, err := w.Count(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}
}

func TestHandleRecordsOneRowPerEvent(t *testing.T) {
	w := newTestWriter(t)
	d := core.NewSimpleDevice("device-1")

	w.Handle(events.Event{Kind: events.KindAdded, Device: d, Timestamp: time.Now()})
	w.Handle(events.Event{Kind: events.KindRemoved, Device: d, Timestamp: time.Now()})
	w.Close()

	n, err := w.Count(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Count() = %d, want 2", n)
	}
}

func TestAttachReceivesBusEvents(t *testing.T) {
	w := newTestWriter(t)
	bus := events.NewBus()
	w.Attach(bus)

	d := core.NewSimpleDevice("device-2")
	bus.Publish(events.Event{Kind: events.KindAdded, Device: d, Timestamp: time.Now()})
	w.Close()

	n, err := w.Count(context.Background(), "device-2")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}
}

func TestCountForUnknownDeviceIsZero(t *testing.T) {
	w := newTestWriter(t)
	w.Close()

	n, err := w.Count(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("Count() = %d, want 0", n)
	}
}
