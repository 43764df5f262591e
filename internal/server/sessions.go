package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/livedoc/internal/export"
	"github.com/ziadkadry99/livedoc/internal/schema"
	"github.com/ziadkadry99/livedoc/internal/session"
)

type sessionList struct {
	TotalSessions  int               `json:"total_sessions"`
	ActiveSessions int               `json:"active_sessions"`
	Sessions       []session.Summary `json:"sessions"`
}

type sessionCreated struct {
	SessionID    string `json:"session_id"`
	Status       string `json:"status"`
	WebSocketURL string `json:"websocket_url"`
}

type sessionDetail struct {
	session.Summary
	Transcription string          `json:"transcription"`
	Document      json.RawMessage `json:"document"`
}

type sessionExport struct {
	SessionID     string          `json:"session_id"`
	Format        string          `json:"format"`
	Document      json.RawMessage `json:"document"`
	Transcription string          `json:"transcription"`
	WordCount     int             `json:"word_count"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionList{
		TotalSessions:  s.deps.Sessions.Count(),
		ActiveSessions: s.deps.Sessions.ActiveCount(),
		Sessions:       s.deps.Sessions.List(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Sessions.Create("")
	if errors.Is(err, session.ErrTooManySessions) {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("session created", "session", sess.ID)
	writeJSON(w, http.StatusOK, sessionCreated{
		SessionID:    sess.ID,
		Status:       "created",
		WebSocketURL: "/ws?session_id=" + sess.ID,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionDetail{
		Summary:       sess.Summary(),
		Transcription: sess.Transcript().FullText(),
		Document:      json.RawMessage(schema.Render(sess.Document(), schema.ViewAudit)),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}

	s.logger.Info("session deleted", "session", id)
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "deleted",
	})
}

// handleGetDocument returns the bare document. view=generator includes the
// extraction guidance.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	view := schema.ParseView(r.URL.Query().Get("view"))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(schema.Render(sess.Document(), view) + "\n"))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	doc := sess.Document()

	switch format {
	case "json":
		writeJSON(w, http.StatusOK, sessionExport{
			SessionID:     sess.ID,
			Format:        format,
			Document:      json.RawMessage(schema.Render(doc, schema.ViewAudit)),
			Transcription: sess.Transcript().FullText(),
			WordCount:     sess.Transcript().WordCount(),
		})
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(export.Markdown(doc)))
	case "html":
		page, err := export.HTML(doc)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(page)
	default:
		writeError(w, http.StatusBadRequest, "unsupported format: "+format+" (use json, markdown or html)")
	}
}

// lookup resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
