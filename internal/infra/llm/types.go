// Package llm defines the model-agnostic provider abstraction.
// All types here are shared between the provider interface, the concrete
// adapters, and the registry that resolves a ModelSpec to an adapter.
package llm

import "fmt"

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | "error"
	Tokens     int    // Total tokens consumed (prompt + completion).
}

// EmbedRequest is the input for a batch embedding call.
type EmbedRequest struct {
	// Model overrides the provider default when non-empty.
	Model string
	Texts []string
}

// EmbedResponse is the output from a batch embedding call.
// Embeddings[i] corresponds to Texts[i] in the request.
type EmbedResponse struct {
	Embeddings [][]float32
	Tokens     int // Total tokens consumed.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "glm-4", "gpt-4o-mini", "llama3.2:3b"
	Provider  string // e.g. "openai", "zhipu", "ollama"
	Version   string
	MaxTokens int // Maximum context window size.
}

// ModelSpec is the logical identifier the caller uses to select a backend.
// It is a plain value: construct it once and treat it as immutable.
type ModelSpec struct {
	Provider     string  // registry key: "openai" | "zhipu" | "ollama"
	Model        string  // chat model name
	EmbedModel   string  // embedding model name
	Temperature  float32 // sampling temperature for completions
	MaxTokens    int     // completion token cap
	TopK         int     // number of passages to retrieve
	PromptBudget int     // assembled prompt size cap, in characters
}

// Key returns the cache key used by the Registry to reuse adapter instances.
// Two specs that differ only in retrieval/prompt parameters share an adapter.
func (s ModelSpec) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.Provider, s.Model, s.EmbedModel)
}
