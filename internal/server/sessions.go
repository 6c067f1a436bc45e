package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/drishti/internal/report"
	"github.com/ayusman/drishti/internal/store"
)

// sessionListLimit caps the number of sessions returned by the list endpoint.
const sessionListLimit = 20

// sessionResponse is the JSON shape of a recorded session.
type sessionResponse struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitempty"`
	Ticks       int64     `json:"ticks"`
	Processed   int64     `json:"processed"`
	AvgFPS      float64   `json:"avg_fps"`
	MeanFrameMs float64   `json:"mean_frame_ms"`
	MaxFrameMs  float64   `json:"max_frame_ms"`
	LastMode    string    `json:"last_mode"`
	ExitReason  string    `json:"exit_reason"`
}

// SessionsHandler serves recorded session history and per-session
// performance reports.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a SessionsHandler over the given store.
func NewSessionsHandler(st *store.Store) *SessionsHandler {
	return &SessionsHandler{store: st}
}

// ServeHTTP routes session requests:
//
//	GET /api/sessions             - list recent sessions
//	GET /api/sessions/{id}        - one session
//	GET /api/sessions/{id}/report - HTML performance chart
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	rest = strings.Trim(rest, "/")

	switch {
	case rest == "":
		h.list(w)
	case strings.HasSuffix(rest, "/report"):
		h.report(w, strings.TrimSuffix(rest, "/report"))
	default:
		h.get(w, rest)
	}
}

func (h *SessionsHandler) list(w http.ResponseWriter) {
	sessions, err := h.store.Sessions().ListRecent(sessionListLimit)
	if err != nil {
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	response := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		response = append(response, toSessionResponse(&sessions[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *SessionsHandler) get(w http.ResponseWriter, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toSessionResponse(sess)); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *SessionsHandler) report(w http.ResponseWriter, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	samples, err := h.store.Samples().ListBySession(id)
	if err != nil {
		http.Error(w, "Failed to load samples", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Render(w, sess, samples); err != nil {
		log.Printf("Failed to render session report: %v", err)
	}
}

func toSessionResponse(sess *store.Session) sessionResponse {
	return sessionResponse{
		ID:          sess.ID,
		StartedAt:   sess.StartedAt,
		EndedAt:     sess.EndedAt,
		Ticks:       sess.Ticks,
		Processed:   sess.Processed,
		AvgFPS:      sess.AvgFPS,
		MeanFrameMs: sess.MeanFrameMs,
		MaxFrameMs:  sess.MaxFrameMs,
		LastMode:    sess.LastMode,
		ExitReason:  sess.ExitReason,
	}
}
