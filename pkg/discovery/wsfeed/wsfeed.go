// Package wsfeed is a discovery.Backend that consumes another daemon's
// event stream over WebSocket. Adapted from the teacher's web.Server,
// which pushed JSON messages to dashboard clients over the same
// gorilla/websocket connection; here the daemon is the client instead
// of the server.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/discovery"
)

// Config holds connection parameters for the remote feed.
type Config struct {
	// URL is the ws:// or wss:// endpoint to dial.
	URL string

	// ReconnectDelay is how long to wait before redialing after the
	// connection drops.
	ReconnectDelay time.Duration

	// RemoveDelay is applied to devices synthesized from feed messages.
	RemoveDelay time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{ReconnectDelay: 3 * time.Second, RemoveDelay: 2 * time.Second}
}

// message is the wire shape of one feed notification.
type message struct {
	Kind     string   `json:"kind"`
	DeviceID string   `json:"device_id"`
	GUIDs    []string `json:"guids"`
}

// Backend maintains a long-lived WebSocket connection to a remote feed
// and mirrors its add/remove notifications into a Sink.
type Backend struct {
	cfg  *Config
	name string

	dialer *websocket.Dialer
	seen   map[string]core.Device
}

// New creates a wsfeed Backend named name.
func New(name string, cfg *Config) *Backend {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Backend{cfg: cfg, name: name, dialer: websocket.DefaultDialer, seen: map[string]core.Device{}}
}

func (b *Backend) Name() string { return b.name }

// Run dials the feed and reconnects with a fixed delay until ctx is
// cancelled.
func (b *Backend) Run(ctx context.Context, sink discovery.Sink) error {
	for {
		err := b.runOnce(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.cfg.ReconnectDelay):
			}
		}
	}
}

// Rescan is a no-op: the remote feed pushes sightings on its own schedule,
// there is nothing to pull on demand.
func (b *Backend) Rescan(ctx context.Context, sink discovery.Sink) error {
	return nil
}

func (b *Backend) runOnce(ctx context.Context, sink discovery.Sink) error {
	conn, _, err := b.dialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("wsfeed: dial %s: %w", b.cfg.URL, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			<-done
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		b.apply(msg, sink)
	}
}

func (b *Backend) apply(msg message, sink discovery.Sink) {
	switch msg.Kind {
	case "added", "changed":
		d, ok := b.seen[msg.DeviceID]
		if !ok {
			d = core.NewSimpleDevice(msg.DeviceID, msg.GUIDs...)
			d.SetRemoveDelay(b.cfg.RemoveDelay)
			b.seen[msg.DeviceID] = d
		}
		sink.Add(d)
	case "removed":
		if d, ok := b.seen[msg.DeviceID]; ok {
			sink.Remove(d)
			delete(b.seen, msg.DeviceID)
		}
	}
}
