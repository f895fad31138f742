// Package llm: Provider interface.
// Adapters (OpenAI, Zhipu, Ollama) implement this interface so the rest of
// the application is never coupled to a specific vendor API.
package llm

import "context"

// Provider is the model-agnostic interface for chat and embedding backends.
// Adapters must classify failures with the sentinel errors in errors.go and
// must not cache responses; caching belongs to callers that know the full
// request context.
type Provider interface {
	// ChatCompletion performs a non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Embed computes dense vector representations for a batch of texts.
	Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
