// Package reconciler reacts to surprise device removals by asking
// discovery backends to rescan. Adapted from the teacher's
// pkg/orchestrator (Config/DefaultConfig shape, worker submission via
// internal/pool) trimmed to this one responsibility — there is no
// update payload to push here, only a rescan to request.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fwdaemon/devregistry/internal/pool"
	"github.com/fwdaemon/devregistry/internal/retry"
	"github.com/fwdaemon/devregistry/pkg/discovery"
	"github.com/fwdaemon/devregistry/pkg/events"
)

// Config holds reconciler configuration.
type Config struct {
	// MaxConcurrentRescans bounds how many backends can be rescanning
	// at once.
	MaxConcurrentRescans int

	// Retry bounds rescan attempts per surprise removal.
	Retry *retry.Config

	// Logger receives rescan diagnostics. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrentRescans: 4,
		Retry:                retry.DefaultConfig(),
		Logger:               zerolog.Nop(),
	}
}

// Reconciler listens for removed events carrying no debounce window and
// asks every registered backend to rescan.
type Reconciler struct {
	cfg      *Config
	backends []discovery.Backend
	sink     discovery.Sink
	pool     *pool.WorkerPool
}

// New creates a Reconciler that rescans backends through sink whenever a
// surprise removal is observed on bus.
func New(cfg *Config, bus *events.Bus, sink discovery.Sink, backends ...discovery.Backend) *Reconciler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Reconciler{
		cfg:      cfg,
		backends: backends,
		sink:     sink,
		pool:     pool.New(cfg.MaxConcurrentRescans),
	}
	bus.Subscribe(events.KindRemoved, events.HandlerFunc(r.handleRemoved))
	return r
}

// Start begins processing rescan requests. Call Stop to drain and halt.
func (r *Reconciler) Start(ctx context.Context) {
	r.pool.Start(ctx)
}

// Stop waits for in-flight rescans to finish.
func (r *Reconciler) Stop() {
	r.pool.Stop()
}

// surpriseWindow is how quickly after a removed event still counts as
// "no debounce window was observed" for the purposes of this package;
// the registry does not report the delay that was used on removal, so a
// removal is treated as a surprise whenever it arrives with zero delay
// baked into the device at the time — callers construct devices with
// RemoveDelay() == 0 precisely to signal that case.
const surpriseWindow = 0 * time.Second

func (r *Reconciler) handleRemoved(event events.Event) {
	if event.Device == nil {
		return
	}
	if event.Device.RemoveDelay() != surpriseWindow {
		return
	}

	for _, backend := range r.backends {
		backend := backend
		r.pool.Submit(func(ctx context.Context) error {
			err := retry.Do(ctx, r.cfg.Retry, func() error {
				return backend.Rescan(ctx, r.sink)
			})
			if err != nil {
				r.cfg.Logger.Warn().
					Str("backend", backend.Name()).
					Str("device_id", event.Device.ID()).
					Err(err).
					Msg("reconciler: rescan failed")
			}
			return err
		})
	}
}
