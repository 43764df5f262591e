// Package orchestrator runs one update cycle: it asks the text generator for
// a patch against the current document and classifies what came back.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ziadkadry99/livedoc/internal/llm"
	"github.com/ziadkadry99/livedoc/internal/patch"
)

const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 2000

	// previewLen bounds the response excerpt logged outside verbose mode.
	previewLen = 200
)

// Options configures an Orchestrator.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Verbose logs full prompts and responses at info level.
	Verbose  bool
	Logger   *log.Logger
	Recorder Recorder
}

// DefaultOptions returns the generation settings used in production.
func DefaultOptions() Options {
	return Options{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Orchestrator turns transcript windows into validated patches.
type Orchestrator struct {
	provider llm.Provider
	opts     Options
	logger   *log.Logger
}

// New creates an orchestrator backed by provider. A zero MaxTokens falls
// back to DefaultMaxTokens; a nil Logger discards output.
func New(provider llm.Provider, opts Options) *Orchestrator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Orchestrator{
		provider: provider,
		opts:     opts,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Process runs one cycle for window against doc. history holds the recently
// applied patches, oldest first. An Accepted result carries the parsed patch
// after Normalize, which is also what was validated. Process never applies
// anything; callers apply an Accepted patch themselves.
func (o *Orchestrator) Process(ctx context.Context, window string, doc patch.Document, history []patch.Patch) Result {
	if strings.TrimSpace(window) == "" {
		return skipped(ReasonEmptyWindow, nil, "")
	}

	userPrompt := BuildUserPrompt(window, doc, history)
	if o.opts.Verbose {
		o.logger.Info("sending prompt", "provider", o.provider.Name(), "window_words", len(strings.Fields(window)), "prompt", userPrompt)
	}

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model: o.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt()},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if err != nil {
		o.logger.Warn("generator call failed", "provider", o.provider.Name(), "err", err)
		o.Report(ctx, Diagnostic{Kind: KindProviderFailed, Detail: err.Error()})
		return skipped(ReasonProviderError, err, "")
	}

	raw := resp.Content
	if o.opts.Verbose {
		o.logger.Info("generator response", "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens, "response", raw)
	} else {
		o.logger.Debug("generator response", "output_tokens", resp.OutputTokens, "preview", preview(raw))
	}

	if strings.TrimSpace(raw) == "" {
		return skipped(ReasonEmptyResponse, nil, raw)
	}

	p, err := patch.Parse(raw)
	if err != nil {
		o.logger.Error("discarding unparseable response", "err", err, "raw", raw)
		o.Report(ctx, Diagnostic{Kind: KindParseFailed, Detail: err.Error(), Raw: raw})
		return rejected(ReasonParseError, err, raw)
	}
	if len(p) == 0 {
		return skipped(ReasonNoChanges, nil, raw)
	}

	p = patch.Normalize(p)
	if err := patch.Check(p, doc); err != nil {
		var verr *patch.ValidationError
		if !errors.As(err, &verr) {
			verr = &patch.ValidationError{Msg: err.Error()}
		}
		o.logger.Error("discarding invalid patch", "err", verr, "patch", p.String(), "document", doc.JSON())
		o.Report(ctx, Diagnostic{Kind: KindValidationFailed, Detail: verr.Error(), Raw: raw, Patch: p, Document: doc.Clone()})
		return rejected(ReasonValidationError, verr, raw)
	}

	o.logger.Debug("patch accepted", "operations", len(p), "paths", strings.Join(p.Paths(), ","))
	return Result{Outcome: Accepted, Patch: p, Raw: raw}
}

// Report hands d to the configured Recorder, tagging it with the session
// from ctx. Recorder failures are logged, not returned.
func (o *Orchestrator) Report(ctx context.Context, d Diagnostic) {
	if o.opts.Recorder == nil {
		return
	}
	if d.SessionID == "" {
		d.SessionID = SessionID(ctx)
	}
	if err := o.opts.Recorder.Record(ctx, d); err != nil {
		o.logger.Warn("recording diagnostic failed", "kind", d.Kind, "err", err)
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "..."
}
