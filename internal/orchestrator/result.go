package orchestrator

import "github.com/ziadkadry99/livedoc/internal/patch"

// Outcome is the terminal state of one update cycle.
type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
	Skipped  Outcome = "skipped"
)

// Reason qualifies a Rejected or Skipped outcome.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEmptyWindow     Reason = "empty_window"
	ReasonProviderError   Reason = "provider_error"
	ReasonEmptyResponse   Reason = "empty_response"
	ReasonNoChanges       Reason = "no_changes"
	ReasonParseError      Reason = "parse_error"
	ReasonValidationError Reason = "validation_error"
)

// Result is what Process decided for one window.
type Result struct {
	Outcome Outcome
	Reason  Reason
	// Patch is set only for Accepted results.
	Patch patch.Patch
	// Err holds the provider, parse or validation error behind a
	// non-accepted result.
	Err error
	// Raw is the generator's reply, when there was one.
	Raw string
}

// Empty reports whether there is nothing to apply.
func (r Result) Empty() bool {
	return r.Outcome != Accepted || len(r.Patch) == 0
}

func skipped(reason Reason, err error, raw string) Result {
	return Result{Outcome: Skipped, Reason: reason, Err: err, Raw: raw}
}

func rejected(reason Reason, err error, raw string) Result {
	return Result{Outcome: Rejected, Reason: reason, Err: err, Raw: raw}
}
