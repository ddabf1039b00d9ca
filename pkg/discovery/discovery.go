// Package discovery defines the boundary between external device sources
// and the registry. A Backend watches one source of truth (an SSH fleet,
// a peer daemon's event feed, a USB subsystem in a fuller build) and
// reports devices through a Sink, which is satisfied by *registry.Registry.
package discovery

import (
	"context"

	"github.com/fwdaemon/devregistry/pkg/core"
)

// Sink receives device sightings and departures from a Backend. It is
// implemented by *registry.Registry; Backends never import the registry
// package directly so they stay testable against a fake Sink.
type Sink interface {
	Add(device core.Device)
	Remove(device core.Device)
}

// Backend watches one external device source and reports into a Sink
// until ctx is cancelled.
type Backend interface {
	// Run blocks until ctx is cancelled or the backend hits an
	// unrecoverable error.
	Run(ctx context.Context, sink Sink) error

	// Rescan forces one out-of-cycle probe of the source, reporting any
	// sightings into sink before returning. Used by the reconciler after
	// a surprise removal.
	Rescan(ctx context.Context, sink Sink) error

	// Name identifies the backend in logs.
	Name() string
}
