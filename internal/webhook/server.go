// Package webhook serves the HTTP API: light state under /lights,
// transmitter counters under /transmitters, the transmit ledger under
// /ledger, and free-form hooks under /hooks that are published to the
// event bus for scripts.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/irlightd/internal/eventbus"
	"github.com/dokzlo13/irlightd/internal/host"
	"github.com/dokzlo13/irlightd/internal/ledger"
	"github.com/dokzlo13/irlightd/internal/transmitter"
)

const maxBodySize = 1 << 20

// StatsSource is a transmitter as seen by the API.
type StatsSource interface {
	ID() string
	Stats() transmitter.Stats
}

// History reads the transmit ledger.
type History interface {
	GetRecent(limit int) ([]*ledger.Entry, error)
	GetBySource(source string, limit int) ([]*ledger.Entry, error)
	GetByRequest(requestID string) ([]*ledger.Entry, error)
}

// Options wires the server to the rest of the daemon. Nil fields disable
// the routes that need them.
type Options struct {
	Lights       *host.LightSet
	Transmitters []StatsSource
	History      History
	Bus          *eventbus.Bus
}

// Server is the HTTP API server.
type Server struct {
	addr       string
	opts       Options
	httpServer *http.Server
}

// NewServer creates a new webhook server.
func NewServer(host string, port int, opts Options) *Server {
	return &Server{
		addr: fmt.Sprintf("%s:%d", host, port),
		opts: opts,
	}
}

// Handler returns the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.Lights != nil {
		mux.HandleFunc("GET /lights", s.handleListLights)
		mux.HandleFunc("GET /lights/{name}", s.handleGetLight)
		mux.HandleFunc("POST /lights/{name}", s.handleSetLight)
		if s.opts.History != nil {
			mux.HandleFunc("GET /lights/{name}/history", s.handleHistory)
		}
	}
	mux.HandleFunc("GET /transmitters", s.handleTransmitters)
	if s.opts.History != nil {
		mux.HandleFunc("GET /ledger", s.handleLedger)
		mux.HandleFunc("GET /ledger/{id}", s.handleLedgerRequest)
	}
	if s.opts.Bus != nil {
		mux.HandleFunc("/hooks/", s.handleWebhook)
	}
	return mux
}

// Run starts the server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting webhook server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Webhook server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) handleListLights(w http.ResponseWriter, r *http.Request) {
	lights := s.opts.Lights.List()
	out := make([]host.Snapshot, 0, len(lights))
	for _, c := range lights {
		out = append(out, c.Snapshot())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	c, ok := s.opts.Lights.Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown light")
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleSetLight(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	c, ok := s.opts.Lights.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown light")
		return
	}

	var cmd host.Command
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid command: "+err.Error())
		return
	}
	if cmd.IsEmpty() {
		writeError(w, http.StatusBadRequest, "empty command")
		return
	}

	if _, err := c.Apply(r.Context(), cmd); err != nil {
		status := statusFor(err)
		log.Warn().Err(err).Str("light", name).Int("status", status).Msg("Light command failed")
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.opts.Lights.Get(name); !ok {
		writeError(w, http.StatusNotFound, "unknown light")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.opts.History.GetBySource(name, limit)
	writeEntries(w, entries, err)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.opts.History.GetRecent(limit)
	writeEntries(w, entries, err)
}

func (s *Server) handleLedgerRequest(w http.ResponseWriter, r *http.Request) {
	entries, err := s.opts.History.GetByRequest(r.PathValue("id"))
	if err == nil && len(entries) == 0 {
		writeError(w, http.StatusNotFound, "unknown request")
		return
	}
	writeEntries(w, entries, err)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 50, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return n, true
}

func writeEntries(w http.ResponseWriter, entries []*ledger.Entry, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleTransmitters(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]transmitter.Stats, len(s.opts.Transmitters))
	for _, t := range s.opts.Transmitters {
		out[t.ID()] = t.Stats()
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWebhook publishes the request to the event bus.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read webhook request body")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Not valid JSON is fine, jsonBody stays nil
	var jsonBody map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &jsonBody); err != nil {
			jsonBody = nil
		}
	}

	headers := make(map[string]interface{})
	for key, values := range r.Header {
		if len(values) == 1 {
			headers[key] = values[0]
		} else {
			headers[key] = values
		}
	}

	eventID := fmt.Sprintf("webhook-%s-%d", r.URL.Path, time.Now().UnixNano())

	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("body_len", len(body)).
		Str("event_id", eventID).
		Msg("Received webhook request")

	s.opts.Bus.Publish(eventbus.Event{
		Type: eventbus.EventTypeWebhook,
		Data: map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"body":     string(body),
			"json":     jsonBody,
			"headers":  headers,
			"event_id": eventID,
		},
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, transmitter.ErrResourceBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
