package api

import (
	"errors"
	"time"

	"github.com/fwdaemon/devregistry/pkg/core"
)

// deviceView is the JSON projection of a core.Device. The interface
// itself is not marshalable directly since implementations are free to
// carry unexported state (as core.SimpleDevice does).
type deviceViewT struct {
	ID           string   `json:"id"`
	EquivalentID string   `json:"equivalent_id,omitempty"`
	GUIDs        []string `json:"guids"`
	Disconnected bool     `json:"disconnected"`
}

type eventView struct {
	Kind      string      `json:"kind"`
	Device    deviceViewT `json:"device"`
	Timestamp time.Time   `json:"timestamp"`
}

func deviceView(d core.Device) deviceViewT {
	if d == nil {
		return deviceViewT{}
	}
	v := deviceViewT{ID: d.ID(), GUIDs: d.GUIDs()}
	if eq, ok := d.EquivalentID(); ok {
		v.EquivalentID = eq
	}
	// Flags() is not part of core.Device — only concrete implementations
	// that track it (core.SimpleDevice) expose it, so we read it through
	// an optional interface rather than widening the contract every
	// Device implementation must satisfy.
	if withFlags, ok := d.(interface{ Flags() core.Flags }); ok {
		v.Disconnected = withFlags.Flags()&core.FlagDisconnected != 0
	}
	return v
}

func deviceViews(devices []core.Device) []deviceViewT {
	views := make([]deviceViewT, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView(d))
	}
	return views
}

func isNotFound(err error) bool  { return errors.Is(err, core.ErrNotFound) }
func isNotUnique(err error) bool { return errors.Is(err, core.ErrNotUnique) }
