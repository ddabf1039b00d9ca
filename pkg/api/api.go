// Package api exposes the registry's read-only lookups and event stream
// over HTTP and WebSocket. Adapted from the teacher's web/server.go,
// trimmed to the registry's own surface — no update-scheduling endpoints,
// since orchestration is out of scope here (spec.md §1).
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/events"
	"github.com/fwdaemon/devregistry/pkg/registry"
)

// Config holds API server configuration.
type Config struct {
	// Address the server listens on, e.g. ":8090".
	Address string

	Logger zerolog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{Address: ":8090", Logger: zerolog.Nop()}
}

// Server serves the registry's query surface.
type Server struct {
	cfg *Config
	reg *registry.Registry

	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
}

// New creates a Server over reg.
func New(cfg *Config, reg *registry.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg: cfg,
		reg: reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
	s.attach(reg.Events())
	return s
}

// Handler builds the http.Handler for the server's routes. Start calls
// this internally; exported so tests can drive routes without binding a
// real listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/devices", s.handleDevices)
	mux.HandleFunc("/devices/guid/", s.handleDeviceByGUID)
	mux.HandleFunc("/devices/id/", s.handleDeviceByID)
	mux.HandleFunc("/pending", s.handlePending)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Start runs the HTTP server, blocking until it returns an error.
func (s *Server) Start() error {
	s.cfg.Logger.Info().Str("addr", s.cfg.Address).Msg("api: listening")
	return http.ListenAndServe(s.cfg.Address, s.Handler())
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, deviceViews(s.reg.All()))
}

func (s *Server) handleDeviceByGUID(w http.ResponseWriter, r *http.Request) {
	guid := r.URL.Path[len("/devices/guid/"):]
	d, err := s.reg.FindByGUID(guid)
	s.writeLookup(w, d, err)
}

func (s *Server) handleDeviceByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/devices/id/"):]
	d, err := s.reg.FindByID(id)
	s.writeLookup(w, d, err)
}

func (s *Server) writeLookup(w http.ResponseWriter, d core.Device, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, deviceView(d))
	case isNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case isNotUnique(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.Pending())
}

// WebSocket event stream

func (s *Server) attach(bus *events.Bus) {
	handle := func(event events.Event) { s.broadcast(event) }
	bus.Subscribe(events.KindAdded, events.HandlerFunc(handle))
	bus.Subscribe(events.KindChanged, events.HandlerFunc(handle))
	bus.Subscribe(events.KindRemoved, events.HandlerFunc(handle))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.cfg.Logger.Warn().Err(err).Msg("api: websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) broadcast(event events.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.Marshal(eventView{
		Kind:      string(event.Kind),
		Device:    deviceView(event.Device),
		Timestamp: event.Timestamp,
	})
	if err != nil {
		s.cfg.Logger.Warn().Err(err).Msg("api: failed to marshal event")
		return
	}

	for client := range s.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("api: websocket write failed")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
