// Package registry implements the device registry: the data structures
// that hold devices, the remove-delay replug debounce state machine, the
// GUID/device-id lookup protocol, and the added/changed/removed event
// contract. See SPEC_FULL.md for the full component breakdown.
package registry

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/fwdaemon/devregistry/internal/loop"
	"github.com/fwdaemon/devregistry/internal/validation"
	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/events"
	"github.com/fwdaemon/devregistry/pkg/telemetry"
)

// Registry owns an ordered sequence of items plus the added/changed/removed
// event channels. All mutation runs on a single internal loop goroutine, so
// the exported methods may be called freely from any goroutine.
type Registry struct {
	loop    *loop.Loop
	bus     *events.Bus
	tracker *telemetry.Tracker
	log     zerolog.Logger

	// items is only ever read or written on the loop goroutine.
	items []*item
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger attaches a structured logger. The zero value discards
// everything, matching the teacher's habit of defaulting components to a
// safely inert configuration.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New creates a Registry with its own loop and event bus, and starts
// running immediately.
func New(opts ...Option) *Registry {
	r := &Registry{
		loop:    loop.New(),
		bus:     events.NewBus(),
		tracker: telemetry.NewTracker(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers device, or — if an item for it already exists — upgrades a
// pending removal (or a plain re-add) into a changed emission. See
// spec.md §4.C.1.
func (r *Registry) Add(d core.Device) {
	if err := validation.ValidateDevice(d); err != nil {
		r.log.Warn().Err(err).Msg("registry: rejecting invalid device on add")
		return
	}
	r.loop.Run(func() { r.addLocked(d) })
}

func (r *Registry) addLocked(d core.Device) {
	if it := r.findItem(d); it != nil {
		if it.pendingRemoval != nil {
			it.cancelPending()
			r.tracker.Cancel(it)
		}
		r.log.Debug().Str("device_id", d.ID()).Msg("registry: changed")
		r.emit(events.KindChanged, it.device)
		return
	}

	it := &item{device: d}
	r.items = append(r.items, it)
	r.log.Debug().Str("device_id", d.ID()).Msg("registry: added")
	r.emit(events.KindAdded, d)
}

// Remove requests removal of device. If its RemoveDelay is zero the
// removal happens (and is emitted) immediately; otherwise a debounce timer
// is started and removal only emits once the timer fires without an
// intervening Add. See spec.md §4.C.2.
func (r *Registry) Remove(d core.Device) {
	if err := validation.ValidateDevice(d); err != nil {
		r.log.Warn().Err(err).Msg("registry: rejecting invalid device on remove")
		return
	}
	r.loop.Run(func() { r.removeLocked(d) })
}

func (r *Registry) removeLocked(d core.Device) {
	it := r.findItem(d)
	if it == nil {
		// Removals race with other removals; an unknown device is a no-op.
		return
	}

	if it.pendingRemoval != nil {
		it.cancelPending()
		r.tracker.Cancel(it)
	}

	delay := d.RemoveDelay()
	if delay <= 0 {
		r.dropItem(it)
		r.log.Debug().Str("device_id", d.ID()).Msg("registry: removed")
		r.emit(events.KindRemoved, d)
		return
	}

	d.SetFlags(core.FlagDisconnected)
	r.tracker.Begin(it, d.ID(), delay)
	r.log.Debug().Str("device_id", d.ID()).Dur("delay", delay).Msg("registry: pending removal")
	it.pendingRemoval = r.loop.AfterFunc(delay, func() { r.fireRemoval(it) })
}

// fireRemoval runs on the loop (via the Timer's AfterFunc wrapper) once a
// debounce window has elapsed without being cancelled.
func (r *Registry) fireRemoval(it *item) {
	it.pendingRemoval = nil
	r.tracker.Fire(it)
	r.dropItem(it)
	r.log.Debug().Str("device_id", it.device.ID()).Msg("registry: removed (delayed)")
	r.emit(events.KindRemoved, it.device)
}

// All returns an independent snapshot of every tracked device, in
// insertion order. Later mutations are never reflected in the returned
// slice. See spec.md §4.C.3.
func (r *Registry) All() []core.Device {
	var out []core.Device
	r.loop.Run(func() {
		out = make([]core.Device, len(r.items))
		for i, it := range r.items {
			out[i] = it.device
		}
	})
	return out
}

// FindByGUID looks up a device by exact GUID match. See spec.md §4.B.1.
func (r *Registry) FindByGUID(guid string) (core.Device, error) {
	var (
		d   core.Device
		err error
	)
	r.loop.Run(func() { d, err = findByGUID(r.items, guid) })
	return d, err
}

// FindByID looks up a device by exact or abbreviated-prefix id match. See
// spec.md §4.B.2.
func (r *Registry) FindByID(idOrPrefix string) (core.Device, error) {
	var (
		d   core.Device
		err error
	)
	r.loop.Run(func() { d, err = findByID(r.items, idOrPrefix) })
	return d, err
}

// Pending returns every item currently inside its debounce window, ordered
// the same way All is: by insertion order of the underlying item, not by
// device id (two items may legitimately share one). It is purely
// observational telemetry (SPEC_FULL.md §4.E) and never feeds back into the
// state machine.
func (r *Registry) Pending() []telemetry.PendingInfo {
	var out []telemetry.PendingInfo
	r.loop.Run(func() {
		for _, it := range r.items {
			if info, ok := r.tracker.Lookup(it); ok {
				out = append(out, info)
			}
		}
	})
	return out
}

// OnAdded subscribes fn to the added channel.
func (r *Registry) OnAdded(fn func(core.Device)) events.Subscription {
	return r.bus.Subscribe(events.KindAdded, deviceHandler(fn))
}

// OnChanged subscribes fn to the changed channel.
func (r *Registry) OnChanged(fn func(core.Device)) events.Subscription {
	return r.bus.Subscribe(events.KindChanged, deviceHandler(fn))
}

// OnRemoved subscribes fn to the removed channel.
func (r *Registry) OnRemoved(fn func(core.Device)) events.Subscription {
	return r.bus.Subscribe(events.KindRemoved, deviceHandler(fn))
}

// Events exposes the underlying bus for consumers that want the raw
// events.Event (kind + timestamp alongside the device) rather than just a
// per-channel Device callback — pkg/audit and pkg/reconciler subscribe
// this way so one handler can see all three kinds.
func (r *Registry) Events() *events.Bus {
	return r.bus
}

// Close stops the loop, cancelling every pending-removal timer without
// firing it and revoking every subscription. Matches spec.md §3 invariant
// 4: destroying the registry drops all items and cancels their timers.
func (r *Registry) Close() {
	r.loop.Run(func() {
		for _, it := range r.items {
			it.cancelPending()
		}
		r.items = nil
	})
	r.loop.Close()
	r.bus.RemoveAll()
}

// findItem locates the item for d by Device address (reference) equality,
// never by identifier — a new handle whose ID() collides with an existing
// item's is a distinct registration. Must run on the loop.
func (r *Registry) findItem(d core.Device) *item {
	for _, it := range r.items {
		if it.device == d {
			return it
		}
	}
	return nil
}

// dropItem removes it from the sequence. Must run on the loop.
func (r *Registry) dropItem(it *item) {
	for i, cur := range r.items {
		if cur == it {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return
		}
	}
}

func (r *Registry) emit(kind events.Kind, d core.Device) {
	r.bus.Publish(events.Event{Kind: kind, Device: d, Timestamp: time.Now()})
}

func deviceHandler(fn func(core.Device)) events.Handler {
	return events.HandlerFunc(func(event events.Event) { fn(event.Device) })
}
