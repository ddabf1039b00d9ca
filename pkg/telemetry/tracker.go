// Package telemetry tracks how long each registry item has spent in its
// debounce window, for observability only — nothing here feeds back into
// the registry's state machine. Adapted from the teacher's pkg/progress,
// whose Tracker/Estimator pair tracked firmware transfer progress; this
// Tracker tracks pending-removal windows instead.
package telemetry

import (
	"sync"
	"time"
)

// Token identifies one item's pending-removal window. The registry passes
// its own per-item pointer as the token: two items whose devices happen to
// report the same ID() are still distinct tokens, so one item's Begin can
// never overwrite or cancel another's entry. See spec.md §4.C.1.
type Token any

// PendingInfo is a read-only snapshot of one item's debounce window.
type PendingInfo struct {
	DeviceID string
	Since    time.Time
	Delay    time.Duration
}

// Tracker records the moment a removal was scheduled and its configured
// delay, keyed by Token. It is safe for concurrent use, though in practice
// the registry only ever calls it from its own loop goroutine.
type Tracker struct {
	mu      sync.Mutex
	pending map[Token]PendingInfo
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[Token]PendingInfo)}
}

// Begin records that token entered its debounce window for delay, starting
// now. deviceID is carried along purely for display in PendingInfo.
func (t *Tracker) Begin(token Token, deviceID string, delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[token] = PendingInfo{DeviceID: deviceID, Since: time.Now(), Delay: delay}
}

// Cancel records that token's debounce window ended early (the device was
// re-added, or removed again before the timer fired).
func (t *Tracker) Cancel(token Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, token)
}

// Fire records that token's debounce window elapsed and the removal went
// through.
func (t *Tracker) Fire(token Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, token)
}

// Lookup returns token's pending window, if it still has one. Callers that
// need the result ordered like Registry.All() should iterate their own
// item sequence and call Lookup per item rather than using Snapshot.
func (t *Tracker) Lookup(token Token) (PendingInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.pending[token]
	return info, ok
}

// Snapshot returns every item currently inside its debounce window, in no
// particular order. Registry.Pending uses Lookup instead so it can report
// pending items in the same order Registry.All does.
func (t *Tracker) Snapshot() []PendingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]PendingInfo, 0, len(t.pending))
	for _, info := range t.pending {
		out = append(out, info)
	}
	return out
}

// Remaining returns how much of the debounce window is left as of now,
// floored at zero once the deadline has passed.
func (p PendingInfo) Remaining(now time.Time) time.Duration {
	left := p.Since.Add(p.Delay).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
