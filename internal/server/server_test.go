package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/livedoc/internal/audit"
	"github.com/ziadkadry99/livedoc/internal/db"
	"github.com/ziadkadry99/livedoc/internal/llm/llmtest"
	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/session"
)

const onboardingPatch = `[{"op":"replace","path":"/process_name","value":"Customer Onboarding"}]`

type fakeTranscriber struct {
	mu   sync.Mutex
	text string
	err  error
	got  []byte
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = audio
	return f.text, f.err
}

func (f *fakeTranscriber) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeTranscriber) received() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

type testEnv struct {
	srv      *Server
	mock     *llmtest.MockProvider
	sessions *session.Manager
	store    *audit.Store
	stt      *fakeTranscriber
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := audit.NewStore(database)
	mock := llmtest.New(onboardingPatch)
	opts := orchestrator.DefaultOptions()
	opts.Recorder = store
	manager := session.NewManager(session.ManagerOptions{MaxSessions: 3})
	transcriber := &fakeTranscriber{text: "this is the customer onboarding process"}

	srv := New(cfg, Deps{
		Sessions:    manager,
		Processor:   orchestrator.New(mock, opts),
		Transcriber: transcriber,
		Audit:       store,
	})
	return &testEnv{srv: srv, mock: mock, sessions: manager, store: store, stt: transcriber}
}

func (e *testEnv) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(t, "GET", "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "healthy" || body["service"] != ServiceName {
		t.Errorf("unexpected body %v", body)
	}
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t, Config{Version: "1.2.3"})

	var body struct {
		Name      string            `json:"name"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	decode(t, env.do(t, "GET", "/"), &body)
	if body.Name != ServiceName || body.Version != "1.2.3" || body.Endpoints["websocket"] != "/ws" {
		t.Errorf("unexpected info %+v", body)
	}
}

func TestCORSHeaders(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		origin string
		allow  bool
	}{
		{"allow all", Config{AllowAll: true}, "http://example.com", true},
		{"frontend", Config{FrontendURL: "http://localhost:3000"}, "http://localhost:3000", true},
		{"dev port", Config{}, "http://localhost:5173", true},
		{"foreign", Config{FrontendURL: "http://localhost:3000"}, "http://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.cfg)
			req := httptest.NewRequest("OPTIONS", "/health", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "GET")
			w := httptest.NewRecorder()
			env.srv.Router().ServeHTTP(w, req)

			got := w.Header().Get("Access-Control-Allow-Origin") != ""
			if got != tt.allow {
				t.Errorf("Allow-Origin present = %v, want %v", got, tt.allow)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, Config{})

	w := env.do(t, "POST", "/api/sessions")
	if w.Code != http.StatusOK {
		t.Fatalf("create: status %d", w.Code)
	}
	var created sessionCreated
	decode(t, w, &created)
	if created.Status != "created" || created.WebSocketURL != "/ws?session_id="+created.SessionID {
		t.Errorf("unexpected create body %+v", created)
	}

	var list sessionList
	decode(t, env.do(t, "GET", "/api/sessions"), &list)
	if list.TotalSessions != 1 || list.ActiveSessions != 1 || len(list.Sessions) != 1 {
		t.Errorf("unexpected list %+v", list)
	}

	w = env.do(t, "GET", "/api/sessions/"+created.SessionID)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}
	var detail map[string]any
	decode(t, w, &detail)
	for _, key := range []string{"session_id", "created_at", "updated_at", "status", "transcription", "word_count", "document"} {
		if _, ok := detail[key]; !ok {
			t.Errorf("session detail missing %q", key)
		}
	}
	if strings.Contains(w.Body.String(), "_instructions") {
		t.Error("session detail leaked metadata")
	}

	w = env.do(t, "DELETE", "/api/sessions/"+created.SessionID)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted"`) {
		t.Errorf("delete: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(t, "DELETE", "/api/sessions/"+created.SessionID); w.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/sessions/"+created.SessionID); w.Code != http.StatusNotFound {
		t.Errorf("get deleted: status %d", w.Code)
	}
}

func TestCreateSessionLimit(t *testing.T) {
	env := newTestEnv(t, Config{})
	for i := 0; i < 3; i++ {
		if w := env.do(t, "POST", "/api/sessions"); w.Code != http.StatusOK {
			t.Fatalf("create %d: status %d", i, w.Code)
		}
	}
	if w := env.do(t, "POST", "/api/sessions"); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestGetDocumentViews(t *testing.T) {
	env := newTestEnv(t, Config{})
	sess, _ := env.sessions.Create("s1")

	plain := env.do(t, "GET", "/api/sessions/s1/document")
	if plain.Code != http.StatusOK {
		t.Fatalf("status %d", plain.Code)
	}
	if strings.Contains(plain.Body.String(), "_actors_instructions") {
		t.Error("audit view contains guidance")
	}
	if !strings.HasPrefix(plain.Body.String(), "{\n  \"process_name\"") {
		t.Errorf("document not in schema order: %s", plain.Body.String())
	}

	gen := env.do(t, "GET", "/api/sessions/s1/document?view=generator")
	if !strings.Contains(gen.Body.String(), "_actors_instructions") {
		t.Error("generator view is missing guidance")
	}
	if sess.Revision() != 0 {
		t.Error("reading the document changed the session")
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, Config{})
	sess, _ := env.sessions.Create("s1")
	if _, err := sess.Ingest(context.Background(), "this is the customer onboarding process", env.srv.deps.Processor); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	w := env.do(t, "POST", "/api/sessions/s1/export")
	if w.Code != http.StatusOK {
		t.Fatalf("json export: status %d", w.Code)
	}
	var exp struct {
		Format        string         `json:"format"`
		Document      map[string]any `json:"document"`
		Transcription string         `json:"transcription"`
		WordCount     int            `json:"word_count"`
	}
	decode(t, w, &exp)
	if exp.Format != "json" || exp.Document["process_name"] != "Customer Onboarding" || exp.WordCount != 6 {
		t.Errorf("unexpected export %+v", exp)
	}

	w = env.do(t, "POST", "/api/sessions/s1/export?format=markdown")
	if !strings.HasPrefix(w.Body.String(), "# Customer Onboarding\n") || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown") {
		t.Errorf("markdown export: %q", w.Body.String())
	}

	w = env.do(t, "POST", "/api/sessions/s1/export?format=html")
	if !strings.Contains(w.Body.String(), "<title>Customer Onboarding</title>") {
		t.Errorf("html export missing title")
	}

	if w := env.do(t, "POST", "/api/sessions/s1/export?format=pdf"); w.Code != http.StatusBadRequest {
		t.Errorf("pdf export: status %d, want 400", w.Code)
	}
	if w := env.do(t, "POST", "/api/sessions/missing/export"); w.Code != http.StatusNotFound {
		t.Errorf("missing session export: status %d, want 404", w.Code)
	}
}

func TestAuditRoutesMounted(t *testing.T) {
	env := newTestEnv(t, Config{})
	if err := env.store.Log(context.Background(), audit.Entry{SessionID: "s1", Kind: audit.KindApplied}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	var entries []audit.Entry
	decode(t, env.do(t, "GET", "/api/audit?session_id=s1"), &entries)
	if len(entries) != 1 {
		t.Errorf("got %d entries", len(entries))
	}
}

// --- WebSocket tests ---

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expectType(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	msg := readMsg(t, conn)
	if msg["type"] != typ {
		t.Fatalf("got %v, want type %q", msg, typ)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, v string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(v)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWebSocketTranscriptionFlow(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.sessions.Create("s1")
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	conn := dial(t, ts, "?session_id=s1")
	expectType(t, conn, "status")

	send(t, conn, `{"type":"transcription","text":"this is the customer onboarding process"}`)

	if msg := expectType(t, conn, "transcription"); msg["text"] != "this is the customer onboarding process" {
		t.Errorf("transcription echo = %v", msg)
	}
	if msg := expectType(t, conn, "status"); msg["status"] != "processing" {
		t.Errorf("status = %v", msg)
	}
	msg := expectType(t, conn, "document_patch")
	ops, _ := msg["patch"].([]any)
	if len(ops) != 1 {
		t.Fatalf("patch = %v", msg["patch"])
	}
	if msg := expectType(t, conn, "status"); msg["status"] != "idle" {
		t.Errorf("status = %v", msg)
	}

	sess, _ := env.sessions.Get("s1")
	if sess.Document()["process_name"] != "Customer Onboarding" {
		t.Errorf("document = %v", sess.Document())
	}

	entries, err := env.store.Query(context.Background(), audit.QueryFilter{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != audit.KindApplied {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestWebSocketAudioChunk(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	conn := dial(t, ts, "")
	expectType(t, conn, "status")
	if env.sessions.Count() != 1 {
		t.Fatalf("connecting without session_id should create one, have %d", env.sessions.Count())
	}

	audio := bytes.Repeat([]byte{0x1a}, 1500)
	send(t, conn, `{"type":"audio_chunk","data":"`+base64.StdEncoding.EncodeToString(audio)+`","format":"webm"}`)

	if msg := expectType(t, conn, "status"); msg["status"] != "processing" {
		t.Errorf("status = %v", msg)
	}
	if msg := expectType(t, conn, "transcription"); msg["timestamp"] == nil {
		t.Errorf("transcription without timestamp: %v", msg)
	}
	expectType(t, conn, "document_patch")
	expectType(t, conn, "status")

	if !bytes.Equal(env.stt.received(), audio) {
		t.Error("transcriber did not receive the decoded audio")
	}
}

func TestWebSocketErrors(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.sessions.Create("s1")
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	conn := dial(t, ts, "?session_id=s1")
	expectType(t, conn, "status")

	send(t, conn, `{"type":"bogus"}`)
	if msg := expectType(t, conn, "error"); msg["code"] != "invalid_message" {
		t.Errorf("error = %v", msg)
	}

	send(t, conn, `{"type":"audio_chunk","data":"%%%"}`)
	expectType(t, conn, "status")
	if msg := expectType(t, conn, "error"); msg["code"] != "invalid_audio" {
		t.Errorf("error = %v", msg)
	}
	expectType(t, conn, "status")

	env.stt.fail(errors.New("whisper down"))
	send(t, conn, `{"type":"audio_chunk","data":"AAAA"}`)
	expectType(t, conn, "status")
	if msg := expectType(t, conn, "error"); msg["code"] != "transcription_failed" {
		t.Errorf("error = %v", msg)
	}
	expectType(t, conn, "status")

	send(t, conn, `{"type":"stop_recording"}`)
	if msg := expectType(t, conn, "status"); msg["message"] != "Recording stopped" {
		t.Errorf("status = %v", msg)
	}
	sess, _ := env.sessions.Get("s1")
	if sess.Status() != session.StatusStopped {
		t.Errorf("session status = %s", sess.Status())
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	env := newTestEnv(t, Config{})
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	conn := dial(t, ts, "?session_id=nope")
	if msg := expectType(t, conn, "error"); msg["code"] != "session_not_found" {
		t.Errorf("error = %v", msg)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection stayed open for an unknown session")
	}
}

func TestWebSocketBroadcastsToAllClients(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.sessions.Create("s1")
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	speaker := dial(t, ts, "?session_id=s1")
	expectType(t, speaker, "status")
	viewer := dial(t, ts, "?session_id=s1")
	expectType(t, viewer, "status")

	send(t, speaker, `{"type":"transcription","text":"this is the customer onboarding process"}`)
	expectType(t, viewer, "document_patch")

	if n := env.srv.Hub().Count("s1"); n != 2 {
		t.Errorf("hub count = %d, want 2", n)
	}
}
