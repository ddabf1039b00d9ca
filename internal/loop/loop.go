// Package loop implements the single designated goroutine the registry
// runs on: a minimal reactor that serializes posted work and owns
// cancellable delayed callbacks. Any equivalent single-threaded timer
// facility would do; this one is a plain channel-fed worker rather than a
// timer wheel, since the registry only ever has a handful of pending
// removals in flight at once.
package loop

import (
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a one-goroutine task executor. All work posted to it — whether
// an immediate call via Run or a delayed one via AfterFunc — executes on
// the same goroutine, in the order the worker picks it up.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// New starts a Loop's worker goroutine.
func New() *Loop {
	l := &Loop{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.worker()
	return l
}

func (l *Loop) worker() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			return
		}
	}
}

// Run posts fn onto the loop and blocks until it has executed. Callers on
// any goroutine may call Run; the loop itself never blocks fn on anything
// but fn's own work. Run is a no-op if the loop has already been closed.
func (l *Loop) Run(fn func()) {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case l.tasks <- wrapped:
	case <-l.quit:
		return
	}

	select {
	case <-done:
	case <-l.quit:
	}
}

// Post is Run without waiting for fn to complete — fire and forget, still
// serialized with every other task on the loop.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// Close stops the worker goroutine. Timers already scheduled via AfterFunc
// will no longer fire their callback once Close returns; Stop still needs
// to be called on each to release the underlying time.Timer promptly.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.quit)
	})
	l.wg.Wait()
}

// Timer is a cancellable handle to a callback scheduled via
// Loop.AfterFunc. Stop is synchronous and idempotent: once the task that
// calls it has run on the loop, the callback is guaranteed never to run
// (or, if it was already running, to have been the last thing it does —
// Stop never interrupts a callback mid-flight, only prevents a future one).
type Timer struct {
	t         *time.Timer
	cancelled atomic.Bool
}

// Stop cancels the pending callback. Safe to call more than once.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	t.t.Stop()
}

// AfterFunc schedules fn to run on the loop after d. The returned Timer
// cancels the scheduling; because the cancellation check happens inside
// the loop (the same execution context fn itself runs on), a Stop that
// completes before the loop picks up the firing task is guaranteed to
// suppress it — the race spec.md's design notes call out is resolved by
// serialization, not by timing.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	timer := &Timer{}
	timer.t = time.AfterFunc(d, func() {
		l.Run(func() {
			if timer.cancelled.Load() {
				return
			}
			fn()
		})
	})
	return timer
}
