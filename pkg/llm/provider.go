package llm

import (
	"context"
)

// Request is one structured-output call to a planning model.
type Request struct {
	// Name selects the model profile (intent) and labels the history log.
	Name string
	// System carries policy instructions, kept apart from the user payload.
	System string
	Prompt string
	// Schema is a JSON Schema the response must conform to. Nil means free-form JSON.
	Schema map[string]any
}

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateJSON sends the request and returns the raw JSON body of the answer,
	// stripped of markdown fences. Decoding and validation belong to the caller.
	GenerateJSON(ctx context.Context, req Request) ([]byte, error)

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error

	// HasProfile checks if the provider has a specific profile configured.
	HasProfile(name string) bool
}
