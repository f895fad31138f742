package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avelasco/docqa/internal/infra/llm"
)

// healthProvider is a provider whose only interesting behavior is health.
type healthProvider struct {
	healthy bool
}

func (p *healthProvider) ChatCompletion(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: "ok"}, nil
}

func (p *healthProvider) Embed(context.Context, llm.EmbedRequest) (*llm.EmbedResponse, error) {
	return &llm.EmbedResponse{Embeddings: [][]float32{{1}}}, nil
}

func (p *healthProvider) ModelInfo() llm.ModelMeta { return llm.ModelMeta{} }

func (p *healthProvider) HealthCheck(context.Context) error {
	if p.healthy {
		return nil
	}
	return errors.New("backend down")
}

func TestModelsList(t *testing.T) {
	t.Parallel()

	registry := llm.NewRegistry(map[string]llm.Constructor{
		"up": func(llm.ModelSpec) (llm.Provider, error) {
			return &healthProvider{healthy: true}, nil
		},
		"down": func(llm.ModelSpec) (llm.Provider, error) {
			return &healthProvider{healthy: false}, nil
		},
		"broken": func(llm.ModelSpec) (llm.Provider, error) {
			return nil, errors.New("bad config")
		},
	})
	specs := map[string]llm.ModelSpec{
		"up":     {Provider: "up", Model: "m1", EmbedModel: "e1"},
		"down":   {Provider: "down", Model: "m2", EmbedModel: "e2"},
		"broken": {Provider: "broken", Model: "m3", EmbedModel: "e3"},
	}

	h := NewModelsHandler(registry, specs)
	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Models []modelInfo `json:"models"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Models) != 3 {
		t.Fatalf("got %d models", len(resp.Models))
	}

	// Sorted by provider name: broken, down, up.
	byName := map[string]modelInfo{}
	for _, m := range resp.Models {
		byName[m.Provider] = m
	}
	if resp.Models[0].Provider != "broken" || resp.Models[2].Provider != "up" {
		t.Errorf("models not sorted: %+v", resp.Models)
	}
	if !byName["up"].Healthy {
		t.Error("up provider reported unhealthy")
	}
	if byName["down"].Healthy || byName["broken"].Healthy {
		t.Errorf("failing providers reported healthy: %+v", byName)
	}
	if byName["up"].ChatModel != "m1" || byName["up"].EmbedModel != "e1" {
		t.Errorf("configured models not echoed: %+v", byName["up"])
	}
}
