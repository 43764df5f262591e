package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/livedoc/internal/protocol"
	"github.com/ziadkadry99/livedoc/internal/session"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn serializes writes to one socket. gorilla allows a single
// concurrent writer, and hub broadcasts arrive from other connections.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	c := &wsConn{conn: conn}

	sess, err := s.attach(r.URL.Query().Get("session_id"))
	if err != nil {
		s.logger.Warn("websocket session unavailable", "err", err)
		s.send(c, protocol.NewError(err.Error(), sessionErrorCode(err)))
		return
	}
	log := s.logger.With("session", sess.ID)
	log.Info("websocket connected")

	s.deps.Hub.Register(sess.ID, c)
	defer s.deps.Hub.Unregister(sess.ID, c)

	s.send(c, protocol.Status{Status: protocol.StatusIdle, Message: "Connected to session " + sess.ID})

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "err", err)
			}
			log.Info("websocket disconnected")
			return
		}

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			log.Warn("invalid client message", "err", err)
			s.send(c, protocol.NewError("Invalid message: "+err.Error(), protocol.CodeInvalidMessage))
			continue
		}

		switch m := msg.(type) {
		case protocol.AudioChunk:
			s.handleAudio(ctx, c, sess, m)
		case protocol.TranscriptionInput:
			s.send(c, protocol.NewTranscription(m.Text, s.timestamp()))
			s.send(c, protocol.Status{Status: protocol.StatusProcessing, Message: "Generating document updates..."})
			s.ingest(ctx, c, sess, m.Text)
			s.send(c, protocol.Status{Status: protocol.StatusIdle, Message: "Ready"})
		case protocol.StopRecording:
			sess.Stop()
			log.Info("recording stopped")
			s.send(c, protocol.Status{Status: protocol.StatusIdle, Message: "Recording stopped"})
		}
	}
}

// attach resumes the named session or creates a new one when id is empty.
func (s *Server) attach(id string) (*session.Session, error) {
	if id == "" {
		return s.deps.Sessions.Create("")
	}
	sess, err := s.deps.Sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Status() == session.StatusExpired {
		return nil, fmt.Errorf("%s: %w", id, session.ErrExpired)
	}
	return sess, nil
}

func (s *Server) handleAudio(ctx context.Context, c *wsConn, sess *session.Session, m protocol.AudioChunk) {
	s.send(c, protocol.Status{Status: protocol.StatusProcessing, Message: "Transcribing audio..."})
	defer s.send(c, protocol.Status{Status: protocol.StatusIdle, Message: "Ready for next audio chunk"})

	audio, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		s.logger.Warn("invalid audio payload", "session", sess.ID, "err", err)
		s.send(c, protocol.NewError("Invalid audio data", protocol.CodeInvalidAudio))
		return
	}
	if s.deps.Transcriber == nil {
		s.send(c, protocol.NewError("Transcription is not configured", protocol.CodeTranscriptionFailed))
		return
	}

	text, err := s.deps.Transcriber.Transcribe(ctx, audio, m.Format)
	if err != nil {
		s.logger.Error("transcription failed", "session", sess.ID, "err", err)
		s.send(c, protocol.NewError("Transcription failed: "+err.Error(), protocol.CodeTranscriptionFailed))
		return
	}
	s.logger.Debug("audio transcribed", "session", sess.ID, "format", m.Format, "bytes", len(audio), "chars", len(text))
	if text == "" {
		return
	}

	s.send(c, protocol.NewTranscription(text, s.timestamp()))
	s.ingest(ctx, c, sess, text)
}

// ingest runs one update cycle and broadcasts the patch when it applied.
// Rejected and skipped cycles are only logged.
func (s *Server) ingest(ctx context.Context, c *wsConn, sess *session.Session, text string) {
	res, err := sess.Ingest(ctx, text, s.deps.Processor)
	if err != nil {
		s.logger.Error("update cycle failed", "session", sess.ID, "err", err)
		code := protocol.CodeProcessingFailed
		if errors.Is(err, session.ErrExpired) {
			code = protocol.CodeSessionExpired
		}
		s.send(c, protocol.NewError("Processing failed: "+err.Error(), code))
		return
	}

	switch res.Outcome {
	case session.Applied:
		n := s.deps.Hub.Broadcast(sess.ID, protocol.DocumentPatch{Patch: res.Patch})
		s.logger.Info("patch applied", "session", sess.ID, "ops", len(res.Patch), "revision", sess.Revision(), "clients", n)
	case session.Rejected:
		s.logger.Warn("patch rejected", "session", sess.ID, "reason", res.Reason, "err", res.Err)
	default:
		s.logger.Debug("cycle skipped", "session", sess.ID, "reason", res.Reason)
	}
}

func (s *Server) send(c *wsConn, msg any) {
	if err := c.Send(msg); err != nil {
		s.logger.Warn("websocket write failed", "err", err)
	}
}

func (s *Server) timestamp() float64 {
	return float64(s.now().UnixMilli()) / 1000
}

func sessionErrorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return protocol.CodeSessionNotFound
	case errors.Is(err, session.ErrExpired):
		return protocol.CodeSessionExpired
	case errors.Is(err, session.ErrTooManySessions):
		return protocol.CodeSessionLimit
	default:
		return protocol.CodeProcessingFailed
	}
}
