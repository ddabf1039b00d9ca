// Package sqlite persists an append-only audit trail of already-emitted
// registry lifecycle events. It is an external observer (spec.md §1): the
// registry's own state and semantics are unaffected whether or not an
// audit Writer is attached. Adapted from the teacher's
// pkg/registry/sqlite, which stored live device rows instead of a log of
// past events.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fwdaemon/devregistry/internal/retry"
	"github.com/fwdaemon/devregistry/pkg/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS device_events (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id  TEXT NOT NULL,
	guids      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	observed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_device_events_device_id ON device_events(device_id);
CREATE INDEX IF NOT EXISTS idx_device_events_observed_at ON device_events(observed_at);
`

// Writer appends one row per registry lifecycle event to a SQLite database.
type Writer struct {
	db     *sql.DB
	retry  *retry.Config
	events chan events.Event
	done   chan struct{}
}

// Config configures the audit Writer.
type Config struct {
	// Path is the SQLite database file. ":memory:" is valid for tests.
	Path string

	// QueueSize bounds how many unwritten events the Writer will buffer
	// before Handle starts dropping newly arriving events — the writer
	// never blocks the registry's loop goroutine.
	QueueSize int

	// Retry controls backoff for transient write failures. Defaults to
	// retry.DefaultConfig() when nil.
	Retry *retry.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{Path: "devregistry-audit.db", QueueSize: 256}
}

// New opens (creating if necessary) the audit database and starts the
// writer's background goroutine. Call Close to flush and release it.
func New(cfg *Config) (*Writer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create schema: %w", err)
	}

	w := &Writer{
		db:     db,
		retry:  retryCfg,
		events: make(chan events.Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Attach subscribes the writer to all three lifecycle channels on reg.
func (w *Writer) Attach(reg *events.Bus) {
	reg.Subscribe(events.KindAdded, w)
	reg.Subscribe(events.KindChanged, w)
	reg.Subscribe(events.KindRemoved, w)
}

// Handle implements events.Handler. It never blocks: a full queue drops
// the event rather than stalling the registry's loop goroutine.
func (w *Writer) Handle(event events.Event) {
	select {
	case w.events <- event:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for event := range w.events {
		ctx := context.Background()
		if err := retry.Do(ctx, w.retry, func() error { return w.insert(ctx, event) }); err != nil {
			// Out of retries: drop the row. The audit log is best-effort,
			// never a gate on registry correctness.
			continue
		}
	}
}

func (w *Writer) insert(ctx context.Context, event events.Event) error {
	guids := ""
	if event.Device != nil {
		guids = strings.Join(event.Device.GUIDs(), ",")
	}
	_, err := w.db.ExecContext(ctx,
		`INSERT INTO device_events (device_id, guids, kind, observed_at) VALUES (?, ?, ?, ?)`,
		event.Device.ID(), guids, string(event.Kind), event.Timestamp.Format(time.RFC3339Nano),
	)
	return err
}

// Count returns how many events have been persisted for deviceID.
func (w *Writer) Count(ctx context.Context, deviceID string) (int, error) {
	var n int
	row := w.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_events WHERE device_id = ?`, deviceID)
	err := row.Scan(&n)
	return n, err
}

// Close stops accepting new events, waits for the queue to drain, and
// closes the database.
func (w *Writer) Close() error {
	close(w.events)
	<-w.done
	return w.db.Close()
}
