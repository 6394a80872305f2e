// Package server exposes the operator's HTTP surface: the event stream,
// manual reconcile triggers, audit queries, room status and health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"roomop/internal/audit"
	"roomop/internal/events"
	"roomop/internal/reconciler"
	"roomop/internal/spec"
	"roomop/pkg/logging"
)

// ConfirmHeader is the request header carrying explicit approval of
// high-impact changes.
const ConfirmHeader = "X-Confirm"

// SpecProvider hands out the currently accepted room spec, or nil when none
// has been accepted yet.
type SpecProvider interface {
	Current() *spec.RoomSpec
}

// Reconciler triggers reconcile cycles and reports room status.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconciler.Request) reconciler.Result
	Status(roomID string) (reconciler.RoomStatus, bool)
	StatusAll() []reconciler.RoomStatus
}

// Server is the operator's HTTP API.
type Server struct {
	reconciler  Reconciler
	specs       SpecProvider
	auditLog    *audit.Log
	broadcaster *events.Broadcaster
	metrics     http.Handler
	heartbeat   time.Duration
}

// New assembles the HTTP server. metricsHandler may be nil to omit the
// metrics endpoint.
func New(
	rec Reconciler,
	specs SpecProvider,
	auditLog *audit.Log,
	broadcaster *events.Broadcaster,
	metricsHandler http.Handler,
	heartbeat time.Duration,
) *Server {
	if heartbeat <= 0 {
		heartbeat = events.DefaultHeartbeatInterval
	}
	return &Server{
		reconciler:  rec,
		specs:       specs,
		auditLog:    auditLog,
		broadcaster: broadcaster,
		metrics:     metricsHandler,
		heartbeat:   heartbeat,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Post("/rooms/{roomID}/reconcile", s.handleReconcile)
		r.Get("/audit", s.handleAudit)
		r.Get("/status", s.handleStatusAll)
		r.Get("/status/{roomID}", s.handleStatus)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvents streams broadcast envelopes to the client as SSE until the
// client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sw, err := events.NewStreamWriter(w, s.heartbeat)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(sub.ID)

	events.ConfigureResponse(w)
	w.WriteHeader(http.StatusOK)

	greeting := events.NewEnvelope(events.TypeConnected, map[string]interface{}{
		"subscriptionId": sub.ID.String(),
	})
	if err := sw.WriteEvent(greeting); err != nil {
		return
	}

	if err := sw.Serve(r.Context(), sub); err != nil {
		logging.Debug("Server", "event stream %s ended: %v", sub.ID, err)
	}
}

// handleReconcile triggers one synchronous cycle against the currently
// accepted spec and returns its result.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	current := s.specs.Current()
	if current == nil {
		writeError(w, http.StatusConflict, "no accepted spec")
		return
	}
	if current.Spec.RoomID != roomID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown room %q", roomID))
		return
	}

	req := reconciler.Request{
		Spec:    current,
		Confirm: r.Header.Get(ConfirmHeader) == "true",
		DryRun:  r.URL.Query().Get("dryRun") == "true",
	}
	result := s.reconciler.Reconcile(r.Context(), req)

	status := http.StatusOK
	switch result.State {
	case reconciler.StateBlocked:
		status = http.StatusConflict
	case reconciler.StateFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// handleAudit serves audit entries filtered by correlation ID or by an
// RFC3339 time range; without filters it returns the most recent entries.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if correlationID := q.Get("correlationId"); correlationID != "" {
		writeJSON(w, http.StatusOK, s.auditLog.ByCorrelation(correlationID))
		return
	}

	if sinceRaw := q.Get("since"); sinceRaw != "" {
		since, err := time.Parse(time.RFC3339, sinceRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		var until time.Time
		if untilRaw := q.Get("until"); untilRaw != "" {
			until, err = time.Parse(time.RFC3339, untilRaw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "until must be RFC3339")
				return
			}
		}
		writeJSON(w, http.StatusOK, s.auditLog.Range(since, until))
		return
	}

	writeJSON(w, http.StatusOK, s.auditLog.Recent(100))
}

func (s *Server) handleStatusAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reconciler.StatusAll())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	status, ok := s.reconciler.Status(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown room %q", roomID))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Debug("Server", "writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
