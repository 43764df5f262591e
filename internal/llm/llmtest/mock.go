// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ziadkadry99/livedoc/internal/llm"
)

// MockProvider records calls and returns canned responses. Queued replies
// are served in order; once exhausted, Content and Err are returned.
type MockProvider struct {
	mu      sync.Mutex
	Calls   []llm.CompletionRequest
	Content string
	Err     error
	queue   []reply
}

type reply struct {
	content string
	err     error
}

// New returns a mock that answers every call with content.
func New(content string) *MockProvider {
	return &MockProvider{Content: content}
}

// Queue schedules replies for the next calls.
func (m *MockProvider) Queue(contents ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range contents {
		m.queue = append(m.queue, reply{content: c})
	}
	return m
}

// QueueError schedules a failing reply for the next call.
func (m *MockProvider) QueueError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, reply{err: err})
	return m
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	r := reply{content: m.Content, err: m.Err}
	if len(m.queue) > 0 {
		r = m.queue[0]
		m.queue = m.queue[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{
		Content:      r.content,
		InputTokens:  10,
		OutputTokens: 20,
		Model:        "mock-model",
		FinishReason: "stop",
	}, nil
}

// CallCount returns the number of Complete calls so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastRequest returns the most recent request, if any.
func (m *MockProvider) LastRequest() (llm.CompletionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return llm.CompletionRequest{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
