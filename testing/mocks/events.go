package mocks

import (
	"sync/atomic"

	"github.com/fwdaemon/devregistry/pkg/events"
)

// EventCounter returns a handler that counts events.
func EventCounter(counter *atomic.Int64) events.Handler {
	return events.HandlerFunc(func(event events.Event) {
		counter.Add(1)
	})
}
