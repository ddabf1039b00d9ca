package core

import (
	"sync"
	"time"
)

// SimpleDevice is a minimal, concurrency-safe Device implementation used by
// discovery backends, examples, and tests. Production collaborators are
// expected to supply their own richer implementation — the registry never
// depends on this type.
type SimpleDevice struct {
	mu sync.Mutex

	id           string
	equivalentID string
	hasEquiv     bool
	guids        []string
	removeDelay  time.Duration
	flags        Flags

	// Name and Address are descriptive only; the registry never reads them.
	Name    string
	Address string
}

// NewSimpleDevice creates a device with the given primary id and GUIDs.
func NewSimpleDevice(id string, guids ...string) *SimpleDevice {
	return &SimpleDevice{id: id, guids: append([]string(nil), guids...)}
}

// ID implements Device.
func (d *SimpleDevice) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// SetEquivalentID sets the alternate identifier returned by EquivalentID.
func (d *SimpleDevice) SetEquivalentID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.equivalentID = id
	d.hasEquiv = id != ""
}

// EquivalentID implements Device.
func (d *SimpleDevice) EquivalentID() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.equivalentID, d.hasEquiv
}

// GUIDs implements Device.
func (d *SimpleDevice) GUIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.guids))
	copy(out, d.guids)
	return out
}

// AddGUID appends a GUID to the device.
func (d *SimpleDevice) AddGUID(guid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.guids = append(d.guids, guid)
}

// HasGUID implements Device.
func (d *SimpleDevice) HasGUID(g string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, have := range d.guids {
		if have == g {
			return true
		}
	}
	return false
}

// SetRemoveDelay configures the debounce window returned by RemoveDelay.
func (d *SimpleDevice) SetRemoveDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeDelay = delay
}

// RemoveDelay implements Device. Read at removal time per spec, so callers
// may mutate it between Add and Remove and the new value will apply.
func (d *SimpleDevice) RemoveDelay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeDelay
}

// SetFlags implements Device.
func (d *SimpleDevice) SetFlags(f Flags) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flags = f
}

// Flags returns the flags last set by the registry.
func (d *SimpleDevice) Flags() Flags {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flags
}
