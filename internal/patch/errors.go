package patch

import "fmt"

// ParseError reports generator output that does not decode into a patch.
// Raw keeps the original text for diagnostics.
type ParseError struct {
	Raw string
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse patch: %s: %v", e.Msg, e.Err)
	}
	return "parse patch: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a patch that fails a dry run against a document.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Invalid patch: %s: %v", e.Msg, e.Err)
	}
	return "Invalid patch: " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ApplyError reports a patch that could not be applied to a document.
type ApplyError struct {
	Msg string
	Err error
}

func (e *ApplyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apply patch: %s: %v", e.Msg, e.Err)
	}
	return "apply patch: " + e.Msg
}

func (e *ApplyError) Unwrap() error { return e.Err }
