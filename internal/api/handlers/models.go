package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/avelasco/docqa/internal/infra/llm"
)

const healthCheckTimeout = 5 * time.Second

// ModelsHandler reports the configured backends and their health.
type ModelsHandler struct {
	registry *llm.Registry
	specs    map[string]llm.ModelSpec
}

// NewModelsHandler creates a ModelsHandler over the configured specs.
func NewModelsHandler(registry *llm.Registry, specs map[string]llm.ModelSpec) *ModelsHandler {
	return &ModelsHandler{registry: registry, specs: specs}
}

// modelInfo is one entry in the List response.
type modelInfo struct {
	Provider   string `json:"provider"`
	ChatModel  string `json:"chat_model"`
	EmbedModel string `json:"embed_model"`
	Healthy    bool   `json:"healthy"`
}

// List handles GET /api/v1/models. Each configured provider is resolved and
// health-checked with a short timeout so one dead backend cannot stall the
// whole response for long.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.specs))
	for name := range h.specs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]modelInfo, 0, len(names))
	for _, name := range names {
		spec := h.specs[name]
		info := modelInfo{
			Provider:   name,
			ChatModel:  spec.Model,
			EmbedModel: spec.EmbedModel,
		}

		if provider, err := h.registry.Resolve(spec); err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			info.Healthy = provider.HealthCheck(ctx) == nil
			cancel()
		}
		out = append(out, info)
	}

	writeJSON(w, http.StatusOK, map[string]any{"models": out})
}
