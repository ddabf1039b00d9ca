package loop

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunExecutesOnLoopGoroutineInOrder(t *testing.T) {
	l := New()
	defer l.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.Run(func() { order = append(order, i) })
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want sequential 0..4", order)
		}
	}
}

func TestAfterFuncFires(t *testing.T) {
	l := New()
	defer l.Close()

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestAfterFuncStopPreventsFire(t *testing.T) {
	l := New()
	defer l.Close()

	var fired atomic.Bool
	timer := l.AfterFunc(30*time.Millisecond, func() { fired.Store(true) })
	timer.Stop()

	time.Sleep(80 * time.Millisecond)
	if fired.Load() {
		t.Fatal("callback fired after Stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := New()
	defer l.Close()

	timer := l.AfterFunc(10*time.Millisecond, func() {})
	timer.Stop()
	timer.Stop() // must not panic
}

func TestCloseStopsWorker(t *testing.T) {
	l := New()
	l.Close()

	// Run after Close must not block forever.
	done := make(chan struct{})
	go func() {
		l.Run(func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run blocked after Close")
	}
}
