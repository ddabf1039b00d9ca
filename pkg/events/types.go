package events

import (
	"time"

	"github.com/fwdaemon/devregistry/pkg/core"
)

// Kind identifies which of the registry's three lifecycle channels an
// Event was published on.
type Kind string

const (
	KindAdded   Kind = "added"
	KindChanged Kind = "changed"
	KindRemoved Kind = "removed"
)

// Event is what subscribers observe: the channel it was published on, the
// Device handle itself (per spec.md §4.C.4 — "each delivers the Device
// handle"), and when the registry emitted it.
type Event struct {
	Kind      Kind
	Device    core.Device
	Timestamp time.Time
}
