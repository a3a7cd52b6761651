package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"careagent/internal/core"
	"careagent/internal/db"
	"careagent/pkg"
)

// Server bundles together the dependencies required by HTTP handlers.
// It implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Repo        *db.Repository
	Coordinator *core.Coordinator
	Notifier    *db.Notifier
}

// NewServer constructs a Server.
func NewServer(repo *db.Repository, coordinator *core.Coordinator, notifier *db.Notifier) *Server {
	return &Server{
		Repo:        repo,
		Coordinator: coordinator,
		Notifier:    notifier,
	}
}

// ServeHTTP dispatches incoming requests based on the URL path. Minimal
// routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	// Process a natural-language request: POST /api/requests
	case path == "/api/requests" && r.Method == http.MethodPost:
		s.handleProcessRequest(w, r)
		return
	// Register or update a patient: POST /api/patients
	case path == "/api/patients" && r.Method == http.MethodPost:
		s.handleUpsertPatient(w, r)
		return
	// Patient alert history: GET /api/patients/{id}/alerts
	case strings.HasPrefix(path, "/api/patients/") && strings.HasSuffix(path, "/alerts") && r.Method == http.MethodGet:
		parts := strings.Split(path, "/")
		if len(parts) < 5 {
			http.NotFound(w, r)
			return
		}
		s.handleListAlerts(w, r, parts[3])
		return
	// Patient profile: GET /api/patients/{id}
	case strings.HasPrefix(path, "/api/patients/") && r.Method == http.MethodGet:
		parts := strings.Split(path, "/")
		if len(parts) < 4 {
			http.NotFound(w, r)
			return
		}
		s.handleGetPatient(w, r, parts[3])
		return
	// Critical alert stream (SSE): GET /api/alerts/stream
	case path == "/api/alerts/stream" && r.Method == http.MethodGet:
		s.handleAlertStream(w, r)
		return
	// All recent alerts: GET /api/alerts
	case path == "/api/alerts" && r.Method == http.MethodGet:
		s.handleListAlerts(w, r, "")
		return
	default:
		http.NotFound(w, r)
	}
}

// handleProcessRequest runs one request through the coordinator and
// writes the response envelope. Critical alerts are broadcast to
// listeners in the background so the caller never waits on NOTIFY.
func (s *Server) handleProcessRequest(w http.ResponseWriter, r *http.Request) {
	var req pkg.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "empty request text", http.StatusBadRequest)
		return
	}

	env := s.Coordinator.Process(r.Context(), req)

	if s.Notifier != nil && len(env.Alerts) > 0 {
		alerts := env.Alerts
		go func() {
			if err := s.Notifier.NotifyCritical(context.Background(), alerts); err != nil {
				log.Println("failed to notify critical alerts:", err)
			}
		}()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(env)
}

// handleUpsertPatient registers or updates a patient profile and echoes
// it back with its assigned ID.
func (s *Server) handleUpsertPatient(w http.ResponseWriter, r *http.Request) {
	var p pkg.Patient
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		http.Error(w, "patient name is required", http.StatusBadRequest)
		return
	}
	if err := s.Repo.UpsertPatient(r.Context(), &p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.Repo.GetPatient(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// handleListAlerts returns the alert history, optionally scoped to one
// patient.
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request, patientID string) {
	alerts, err := s.Repo.ListAlerts(r.Context(), patientID, 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []pkg.Alert{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alerts)
}

// handleAlertStream streams critical-alert notifications for a patient
// using SSE. The current alert history is sent as the first event, then
// each NOTIFY on the alert channel produces a further event until the
// client disconnects.
func (s *Server) handleAlertStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	patientID := r.URL.Query().Get("patient_id")

	// Send initial event with the current history.
	if err := s.sendAlertEvent(r.Context(), w, patientID); err != nil {
		log.Println("failed to send alert event:", err)
		return
	}
	flusher.Flush()

	if s.Notifier == nil {
		return
	}
	notifications, err := s.Notifier.Listen(r.Context())
	if err != nil {
		log.Println("failed to listen for alerts:", err)
		return
	}
	for notified := range notifications {
		if patientID != "" && notified != patientID {
			continue
		}
		if err := s.sendAlertEvent(r.Context(), w, patientID); err != nil {
			log.Println("failed to send alert event:", err)
			return
		}
		flusher.Flush()
	}
}

// sendAlertEvent writes an alert_update event to the SSE response. It
// serialises the current alert history as JSON after the "data:" prefix.
func (s *Server) sendAlertEvent(ctx context.Context, w http.ResponseWriter, patientID string) error {
	alerts, err := s.Repo.ListAlerts(ctx, patientID, 20)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []pkg.Alert{}
	}
	payload := map[string]interface{}{
		"type":       "alert_update",
		"patient_id": patientID,
		"alerts":     alerts,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "data: "+string(data)+"\n\n")
	return err
}
