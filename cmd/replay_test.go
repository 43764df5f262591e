package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/livedoc/internal/llm/llmtest"
	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/patch"
	"github.com/ziadkadry99/livedoc/internal/progress"
	"github.com/ziadkadry99/livedoc/internal/session"
	"github.com/ziadkadry99/livedoc/internal/transcript"
)

func loadTranscript(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", "onboarding.txt"))
	if err != nil {
		t.Fatalf("reading testdata: %v", err)
	}
	return string(data)
}

func TestReplay(t *testing.T) {
	chunks := transcript.Chunks(loadTranscript(t), 20)
	if len(chunks) != 6 {
		t.Fatalf("got %d chunks, want 6", len(chunks))
	}

	mock := llmtest.New("[]").Queue(
		`[{"op":"add","path":"/actors/-","value":"Sales rep"}]`,
		`[]`,
		`[{"op":"remove","path":"/actors/7"}]`,
		"```json\n[{\"op\":\"replace\",\"path\":\"/process_name\",\"value\":\"Customer Onboarding\"}]\n```",
	)
	orch := orchestrator.New(mock, orchestrator.DefaultOptions())
	sess := session.New("replay", session.Options{WindowSize: 50})

	var out bytes.Buffer
	stats, err := replay(context.Background(), sess, orch, chunks, &progress.CIReporter{Out: &out})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	want := replayStats{Applied: 2, Rejected: 1, Skipped: 3}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if mock.CallCount() != 6 {
		t.Errorf("provider calls = %d, want 6", mock.CallCount())
	}
	if sess.Revision() != 2 {
		t.Errorf("revision = %d, want 2", sess.Revision())
	}
	if !strings.Contains(out.String(), "[3/6] chunk 3: rejected") {
		t.Errorf("progress output:\n%s", out.String())
	}

	doc := sess.Document()
	if doc["process_name"] != "Customer Onboarding" {
		t.Errorf("process_name = %v", doc["process_name"])
	}
}

func TestReplayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := orchestrator.New(llmtest.New("[]"), orchestrator.DefaultOptions())
	sess := session.New("replay", session.Options{})
	var out bytes.Buffer
	if _, err := replay(ctx, sess, orch, []string{"one", "two"}, &progress.CIReporter{Out: &out}); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestWriteDocument(t *testing.T) {
	doc := patch.Document{"process_name": "Billing"}

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"process_name": "Billing"`},
		{"markdown", "# Billing\n"},
		{"html", "<title>Billing</title>"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeDocument(&buf, doc, tt.format); err != nil {
				t.Fatalf("writeDocument: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}

	if err := writeDocument(&bytes.Buffer{}, doc, "pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestPromptCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"prompt", "--window", "the sales team calls the customer"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		promptWindow = ""
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, orchestrator.SystemPrompt()) {
		t.Error("system prompt not printed")
	}
	if !strings.Contains(out, "the sales team calls the customer") {
		t.Error("user prompt not printed")
	}
}
