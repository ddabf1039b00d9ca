package core

import "time"

// Flags describes side-effecting state the registry asks a Device to
// adopt. Kept as a bitmask rather than an enum so a real implementation is
// free to OR in its own bits above FlagDisconnected.
type Flags uint32

const (
	// FlagNone clears any registry-managed state on the device.
	FlagNone Flags = 0
	// FlagDisconnected marks a device present-but-unreachable while a
	// pending removal timer is running.
	FlagDisconnected Flags = 1 << iota
)

// Device is the opaque handle the registry tracks. Two handles are "the
// same device" iff they share underlying identity: implementations must be
// passed around as a single shared pointer per logical device so that the
// registry's address-equality checks (§4.C.1/4.C.2) are meaningful.
type Device interface {
	// ID returns the primary identifier, conventionally a hex SHA-1 hash.
	// Must be non-empty.
	ID() string

	// EquivalentID returns an alternate identifier for the same device,
	// used when a device is re-exposed under a renamed id. ok is false
	// when no equivalent id applies.
	EquivalentID() (id string, ok bool)

	// GUIDs returns the device's globally unique identifiers.
	GUIDs() []string

	// HasGUID reports whether g is one of this device's GUIDs.
	HasGUID(g string) bool

	// RemoveDelay returns the debounce window. Zero disables debouncing.
	RemoveDelay() time.Duration

	// SetFlags is invoked by the registry during debounced removal to mark
	// the device present-but-disconnected. Must not block.
	SetFlags(f Flags)
}
