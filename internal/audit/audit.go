// Package audit keeps the diagnostics trail of update cycles: applied
// patches and the raw material behind every rejected one.
package audit

import (
	"time"

	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/patch"
)

// Kind describes what happened in the recorded cycle.
type Kind = orchestrator.DiagnosticKind

const (
	KindApplied          = orchestrator.KindApplied
	KindParseFailed      = orchestrator.KindParseFailed
	KindValidationFailed = orchestrator.KindValidationFailed
	KindApplyFailed      = orchestrator.KindApplyFailed
	KindProviderFailed   = orchestrator.KindProviderFailed
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Kind      Kind           `json:"kind"`
	Detail    string         `json:"detail,omitempty"`
	Raw       string         `json:"raw,omitempty"`
	Patch     patch.Patch    `json:"patch"`
	Document  patch.Document `json:"document,omitempty"`
}
