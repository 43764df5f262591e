package orchestrator

import (
	"context"

	"github.com/ziadkadry99/livedoc/internal/patch"
)

// DiagnosticKind classifies a recorded cycle event.
type DiagnosticKind string

const (
	KindApplied          DiagnosticKind = "applied"
	KindParseFailed      DiagnosticKind = "parse_failed"
	KindValidationFailed DiagnosticKind = "validation_failed"
	KindApplyFailed      DiagnosticKind = "apply_failed"
	KindProviderFailed   DiagnosticKind = "provider_failed"
)

// Diagnostic is the offline-review record of a cycle: the raw reply for
// parse failures, the patch and document snapshot for validation failures.
type Diagnostic struct {
	SessionID string
	Kind      DiagnosticKind
	Detail    string
	Raw       string
	Patch     patch.Patch
	Document  patch.Document
}

// Recorder persists diagnostics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, d Diagnostic) error
}

type sessionKey struct{}

// WithSessionID tags ctx so recorded diagnostics name their session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the id stored by WithSessionID, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
