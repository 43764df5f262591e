// Package session holds live transcription sessions: each owns a transcript
// buffer, the current document and its patch history, and admits one update
// cycle at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/patch"
	"github.com/ziadkadry99/livedoc/internal/schema"
	"github.com/ziadkadry99/livedoc/internal/transcript"
)

// Status is the lifecycle status of a session.
type Status string

const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	StatusExpired Status = "expired"
)

// State is the position of a session within its update cycle.
type State string

const (
	StateIdle       State = "idle"
	StateWindowing  State = "windowing"
	StateGenerating State = "generating"
	StateDecoding   State = "decoding"
)

// ErrExpired is returned when feeding text to an expired session.
var ErrExpired = errors.New("session expired")

// Processor produces patches for transcript windows. *orchestrator.Orchestrator
// satisfies it.
type Processor interface {
	Process(ctx context.Context, window string, doc patch.Document, history []patch.Patch) orchestrator.Result
	Report(ctx context.Context, d orchestrator.Diagnostic)
}

// CycleOutcome is the terminal state of one Ingest call.
type CycleOutcome string

const (
	Applied  CycleOutcome = "applied"
	Rejected CycleOutcome = "rejected"
	Skipped  CycleOutcome = "skipped"
)

// ReasonNothingNew marks a cycle skipped because the appended text was blank.
const ReasonNothingNew orchestrator.Reason = "nothing_new"

// CycleResult reports what one Ingest call did to the session.
type CycleResult struct {
	Outcome CycleOutcome
	Reason  orchestrator.Reason
	// Patch and Document are set when Outcome is Applied.
	Patch    patch.Patch
	Document patch.Document
	Err      error
}

// Options configures a new Session.
type Options struct {
	WindowSize  int
	HistorySize int
	Now         func() time.Time
}

// Session is one live transcription session.
type Session struct {
	ID        string
	CreatedAt time.Time

	buffer  *transcript.Buffer
	history *patch.History
	cycle   *semaphore.Weighted
	now     func() time.Time

	mu        sync.RWMutex
	updatedAt time.Time
	status    Status
	state     State
	document  patch.Document
	revision  int
}

// New creates an active session seeded with the empty document.
func New(id string, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	t := now().UTC()
	return &Session{
		ID:        id,
		CreatedAt: t,
		buffer:    transcript.NewBuffer(opts.WindowSize),
		history:   patch.NewHistory(opts.HistorySize),
		cycle:     semaphore.NewWeighted(1),
		now:       now,
		updatedAt: t,
		status:    StatusActive,
		state:     StateIdle,
		document:  schema.EmptyDocument(),
	}
}

// Ingest runs one update cycle for text. It waits for any in-flight cycle
// on this session, honouring ctx. A patch that validated but fails to apply
// aborts the cycle with a *patch.ApplyError; the session stays usable.
func (s *Session) Ingest(ctx context.Context, text string, proc Processor) (CycleResult, error) {
	if err := s.cycle.Acquire(ctx, 1); err != nil {
		return CycleResult{}, fmt.Errorf("waiting for update cycle: %w", err)
	}
	defer s.cycle.Release(1)
	defer s.setState(StateIdle)

	if err := s.resume(); err != nil {
		return CycleResult{}, err
	}

	s.setState(StateWindowing)
	if !s.buffer.Append(text) {
		return CycleResult{Outcome: Skipped, Reason: ReasonNothingNew}, nil
	}
	window := s.buffer.Tail()
	doc := s.Document()

	s.setState(StateGenerating)
	ctx = orchestrator.WithSessionID(ctx, s.ID)
	res := proc.Process(ctx, window, doc, s.history.Recent())

	s.setState(StateDecoding)
	switch res.Outcome {
	case orchestrator.Rejected:
		return CycleResult{Outcome: Rejected, Reason: res.Reason, Err: res.Err}, nil
	case orchestrator.Skipped:
		return CycleResult{Outcome: Skipped, Reason: res.Reason, Err: res.Err}, nil
	}
	if res.Empty() {
		return CycleResult{Outcome: Skipped, Reason: orchestrator.ReasonNoChanges}, nil
	}

	next, err := patch.Apply(res.Patch, doc)
	if err != nil {
		proc.Report(ctx, orchestrator.Diagnostic{Kind: orchestrator.KindApplyFailed, Detail: err.Error(), Raw: res.Raw, Patch: res.Patch, Document: doc})
		return CycleResult{}, err
	}

	s.mu.Lock()
	s.document = next
	s.revision++
	s.updatedAt = s.now().UTC()
	s.mu.Unlock()
	s.history.Push(res.Patch)

	proc.Report(ctx, orchestrator.Diagnostic{Kind: orchestrator.KindApplied, Raw: res.Raw, Patch: res.Patch})
	return CycleResult{Outcome: Applied, Patch: res.Patch, Document: next.Clone()}, nil
}

// resume touches the session and reactivates it if it was stopped.
func (s *Session) resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusExpired {
		return ErrExpired
	}
	s.status = StatusActive
	s.updatedAt = s.now().UTC()
	return nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Document returns a copy of the current document.
func (s *Session) Document() patch.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document.Clone()
}

// Revision counts the patches applied so far.
func (s *Session) Revision() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// IsActive reports whether the session still accepts input.
func (s *Session) IsActive() bool {
	return s.Status() == StatusActive
}

// Stop marks the session stopped. New input reactivates it.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusActive {
		s.status = StatusStopped
		s.updatedAt = s.now().UTC()
	}
}

func (s *Session) markExpired() {
	s.mu.Lock()
	s.status = StatusExpired
	s.mu.Unlock()
}

// Transcript returns the session's transcript buffer.
func (s *Session) Transcript() *transcript.Buffer {
	return s.buffer
}

// History returns the recently applied patches, oldest first.
func (s *Session) History() []patch.Patch {
	return s.history.Recent()
}

// Summary is the listing view of a session.
type Summary struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Status    Status    `json:"status"`
	State     State     `json:"state"`
	WordCount int       `json:"word_count"`
	Revision  int       `json:"revision"`
}

func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Summary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
		Status:    s.status,
		State:     s.state,
		WordCount: s.buffer.WordCount(),
		Revision:  s.revision,
	}
}
