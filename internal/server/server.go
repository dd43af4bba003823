// Package server exposes the command center over HTTP. The surface is
// small: one endpoint accepting tutor commands, a health probe, and
// read-only views of the roster and grading queue for the front end.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quyk67uet/ai-assistant-workflow/internal/command"
	"github.com/quyk67uet/ai-assistant-workflow/internal/store"
)

// Server handles HTTP requests for the command center.
type Server struct {
	svc    *command.Service
	store  *store.Store
	logger *zap.Logger
}

// New creates a server over the command service and record store.
func New(svc *command.Service, st *store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, store: st, logger: logger}
}

// Handler returns the routed HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tutor-command", s.handleCommand)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/students", s.handleStudents)
	mux.HandleFunc("/submissions", s.handleSubmissions)
	return s.cors(s.logRequests(mux))
}

// commandRequest is the wire shape of a tutor command.
type commandRequest struct {
	TutorID string `json:"tutor_id,omitempty"`
	Prompt  string `json:"prompt"`
}

// commandResponse wraps the service result with timing.
type commandResponse struct {
	command.Result
	ProcessingTime float64 `json:"processing_time"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start := time.Now()
	result, err := s.svc.Handle(r.Context(), command.Request{
		TutorID: req.TutorID,
		Text:    req.Prompt,
	})
	if err != nil {
		s.logger.Error("command handling failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{
		Result:         *result,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"students": len(s.store.Students()),
	})
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Students())
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Submissions(r.URL.Query().Get("status")))
}

// cors allows the front end to call from another origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
