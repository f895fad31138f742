package handlers

import (
	"context"
	"net/http"

	"github.com/avelasco/docqa/internal/domain/qa"
	"github.com/avelasco/docqa/internal/infra/llm"
)

// Asker is the engine contract the handler depends on.
type Asker interface {
	Ask(ctx context.Context, req qa.Request) (*qa.Answer, error)
}

// AskHandler answers questions over the indexed corpus.
type AskHandler struct {
	engine          Asker
	specs           map[string]llm.ModelSpec // per-provider defaults from config
	defaultProvider string
}

// NewAskHandler creates an AskHandler. specs holds the configured default
// ModelSpec per provider name; defaultProvider is used when a request names
// none.
func NewAskHandler(engine Asker, specs map[string]llm.ModelSpec, defaultProvider string) *AskHandler {
	return &AskHandler{engine: engine, specs: specs, defaultProvider: defaultProvider}
}

// askRequest is the JSON body for POST /api/v1/ask. Everything except the
// question is optional; omitted fields fall back to configured defaults.
type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`

	Provider     string   `json:"provider,omitempty"`
	Model        string   `json:"model,omitempty"`
	EmbedModel   string   `json:"embed_model,omitempty"`
	Temperature  *float32 `json:"temperature,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	TopK         int      `json:"top_k,omitempty"`
	PromptBudget int      `json:"prompt_budget,omitempty"`
}

// citation is one passage that was part of the prompt.
type citation struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Page   int     `json:"page,omitempty"`
	Offset int     `json:"offset"`
}

// askResponse is the JSON body returned on success.
type askResponse struct {
	Answer    string     `json:"answer"`
	Citations []citation `json:"citations"`
	Provider  string     `json:"provider"`
	Model     string     `json:"model"`
	SessionID string     `json:"session_id,omitempty"`
	Tokens    int        `json:"tokens,omitempty"`
}

// Ask handles POST /api/v1/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.engine.Ask(r.Context(), qa.Request{
		Question:  req.Question,
		SessionID: req.SessionID,
		Spec:      h.specFromRequest(req),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	citations := make([]citation, len(answer.Citations))
	for i, p := range answer.Citations {
		citations[i] = citation{
			Source: p.Source,
			Text:   p.Text,
			Score:  p.Score,
			Page:   p.Page,
			Offset: p.Offset,
		}
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:    answer.Text,
		Citations: citations,
		Provider:  answer.Spec.Provider,
		Model:     answer.Spec.Model,
		SessionID: req.SessionID,
		Tokens:    answer.Tokens,
	})
}

// specFromRequest builds the effective ModelSpec: the configured defaults of
// the chosen provider overridden by whatever the request sets. An unknown
// provider name passes through unchanged and fails resolution in the engine.
func (h *AskHandler) specFromRequest(req askRequest) llm.ModelSpec {
	provider := req.Provider
	if provider == "" {
		provider = h.defaultProvider
	}

	spec := h.specs[provider]
	spec.Provider = provider
	if req.Model != "" {
		spec.Model = req.Model
	}
	if req.EmbedModel != "" {
		spec.EmbedModel = req.EmbedModel
	}
	if req.Temperature != nil {
		spec.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		spec.MaxTokens = req.MaxTokens
	}
	if req.TopK > 0 {
		spec.TopK = req.TopK
	}
	if req.PromptBudget > 0 {
		spec.PromptBudget = req.PromptBudget
	}
	return spec
}
