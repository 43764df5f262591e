package llm

import "context"

// Provider is a text generator. The document pipeline treats it as the only
// writer of patches and assumes nothing about the reliability of its output.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
