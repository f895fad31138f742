// Package llm: ZhipuAI HTTP adapter.
// Speaks the Zhipu open platform v4 API (open.bigmodel.cn).
// Endpoints used:
//   - POST /api/paas/v4/embeddings        — single text embedding
//   - POST /api/paas/v4/chat/completions  — non-streaming chat completion
//
// The chat surface is OpenAI-shaped; embeddings accept one input per call
// for the embedding-2 model, so Embed issues one request per text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ZhipuProvider implements Provider against the ZhipuAI v4 API.
type ZhipuProvider struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
}

// NewZhipuProvider creates a ZhipuProvider with a 60s default timeout.
func NewZhipuProvider(baseURL, apiKey, chatModel, embedModel string) *ZhipuProvider {
	if baseURL == "" {
		baseURL = "https://open.bigmodel.cn"
	}
	return &ZhipuProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ─── internal Zhipu JSON types ───────────────────────────────────────────────

type zhipuEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type zhipuEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type zhipuChatRequest struct {
	Model       string          `json:"model"`
	Messages    []zhipuChatMsg  `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
}

type zhipuChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type zhipuChatResponse struct {
	Choices []struct {
		Message      zhipuChatMsg `json:"message"`
		FinishReason string       `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ─── Provider implementation ─────────────────────────────────────────────────

// Embed computes embeddings with one POST per text.
func (p *ZhipuProvider) Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error) {
	if len(req.Texts) == 0 {
		return &EmbedResponse{Embeddings: [][]float32{}}, nil
	}

	model := req.Model
	if model == "" {
		model = p.embedModel
	}

	embeddings := make([][]float32, 0, len(req.Texts))
	totalTokens := 0
	for _, text := range req.Texts {
		vec, tokens, err := p.embedOne(ctx, model, text)
		if err != nil {
			return nil, fmt.Errorf("zhipu embed: %w", err)
		}
		embeddings = append(embeddings, vec)
		totalTokens += tokens
	}
	return &EmbedResponse{Embeddings: embeddings, Tokens: totalTokens}, nil
}

func (p *ZhipuProvider) embedOne(ctx context.Context, model, text string) ([]float32, int, error) {
	body, err := json.Marshal(zhipuEmbedRequest{Model: model, Input: text})
	if err != nil {
		return nil, 0, err
	}

	respBody, postErr := p.doPost(ctx, "/api/paas/v4/embeddings", body)
	if postErr != nil {
		return nil, 0, postErr
	}
	defer respBody.Close()

	var out zhipuEmbedResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&out); decodeErr != nil {
		return nil, 0, fmt.Errorf("decode embed response: %w", decodeErr)
	}
	if len(out.Data) == 0 {
		return nil, 0, fmt.Errorf("empty embedding data: %w", ErrUnavailable)
	}
	return out.Data[0].Embedding, out.Usage.TotalTokens, nil
}

// ChatCompletion performs a non-streaming chat via POST /api/paas/v4/chat/completions.
func (p *ZhipuProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.chatModel
	}

	msgs := make([]zhipuChatMsg, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = zhipuChatMsg(m)
	}

	body, err := json.Marshal(zhipuChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("zhipu chat: %w", err)
	}

	respBody, postErr := p.doPost(ctx, "/api/paas/v4/chat/completions", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close()

	var out zhipuChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&out); decodeErr != nil {
		return nil, fmt.Errorf("zhipu chat: decode response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("zhipu chat: empty choices: %w", ErrUnavailable)
	}
	return &ChatResponse{
		Content:    out.Choices[0].Message.Content,
		StopReason: out.Choices[0].FinishReason,
		Tokens:     out.Usage.TotalTokens,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *ZhipuProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.chatModel,
		Provider:  "zhipu",
		Version:   "v4",
		MaxTokens: 128000,
	}
}

// HealthCheck issues a minimal embedding call; Zhipu exposes no dedicated
// health endpoint, and an auth failure here surfaces as ErrAuth.
func (p *ZhipuProvider) HealthCheck(ctx context.Context) error {
	_, _, err := p.embedOne(ctx, p.embedModel, "ping")
	if err != nil {
		return fmt.Errorf("zhipu healthcheck: %w", err)
	}
	return nil
}

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *ZhipuProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("zhipu post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set(headerAuth, "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("zhipu post "+path, err)
	}
	if stErr := classifyStatus("zhipu post "+path, resp.StatusCode); stErr != nil {
		resp.Body.Close() //nolint:errcheck
		return nil, stErr
	}
	return resp.Body, nil
}
