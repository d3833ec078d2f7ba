// Package provider defines the contract for remote language-model backends,
// the error taxonomy the reply pipeline uses to classify tier failures, and
// a small health tracker for status reporting.
package provider

import "context"

// Provider is the interface for communicating with a remote LLM.
// Concrete implementations live in separate packages (e.g. modules/provider/openai).
type Provider interface {
	// Complete sends one completion request and returns the full response.
	// Implementations must classify failures with the sentinels in errors.go.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
