package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ovnanova/aeon/pkg/events"
	"github.com/ovnanova/aeon/pkg/labelstore"
	"github.com/ovnanova/aeon/pkg/log"
	"github.com/ovnanova/aeon/pkg/metrics"
)

// shutdownTimeout bounds graceful HTTP shutdown
const shutdownTimeout = 10 * time.Second

// ReadyFunc reports whether the service is ready to serve traffic
type ReadyFunc func() bool

// Config holds the ops server's collaborators
type Config struct {
	// Addr is the listen address, host:port
	Addr string

	// Ready gates the readiness endpoint; nil means always ready
	Ready ReadyFunc

	// Store serves label lookups; nil disables the labels endpoint
	Store labelstore.Store

	// Broker feeds the event stream endpoint; nil disables it
	Broker *events.Broker
}

// Server is the operational HTTP surface: liveness, readiness,
// metrics, label lookups, and a websocket event stream.
type Server struct {
	cfg      Config
	logger   zerolog.Logger
	srv      *http.Server
	upgrader websocket.Upgrader
}

// NewServer creates the ops server
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: log.WithComponent("api"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	if cfg.Store != nil {
		r.HandleFunc("/labels/{subject}", s.handleLabels).Methods(http.MethodGet)
	}
	if cfg.Broker != nil {
		r.HandleFunc("/ws/events", s.handleEvents).Methods(http.MethodGet)
	}

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Start begins serving and blocks until the listener stops;
// http.ErrServerClosed is swallowed, so callers run it on its own
// goroutine and treat any return as fatal.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("ops server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests with a bounded timeout
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Ready != nil && !s.cfg.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// labelsResponse is the wire shape of a label lookup
type labelsResponse struct {
	Subject string   `json:"subject"`
	Labels  []string `json:"labels"`
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	subject := mux.Vars(r)["subject"]

	recs, err := s.cfg.Store.QueryLabels(r.Context(), subject, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", subject).Msg("label lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}

	vals := labelstore.EffectiveValues(recs)
	if vals == nil {
		vals = []string{}
	}
	writeJSON(w, http.StatusOK, labelsResponse{Subject: subject, Labels: vals})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("event stream upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.cfg.Broker.Subscribe()
	defer s.cfg.Broker.Unsubscribe(sub)

	// Reads are discarded; a read error means the client is gone
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-sub:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
