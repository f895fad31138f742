// Unit tests for ZhipuProvider using httptest mock servers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestZhipuProvider_Embed_OneCallPerText(t *testing.T) {
	t.Parallel()

	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if r.URL.Path != "/api/paas/v4/embeddings" {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.25,0.5]}],"usage":{"total_tokens":4}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewZhipuProvider(srv.URL, "zk-test", "glm-4", "embedding-2")
	resp, err := p.Embed(context.Background(), EmbedRequest{Texts: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if callCount != 2 {
		t.Errorf("expected 2 HTTP calls (one per text), got %d", callCount)
	}
	if len(resp.Embeddings) != 2 || len(resp.Embeddings[0]) != 2 {
		t.Errorf("unexpected embeddings: %v", resp.Embeddings)
	}
	if resp.Tokens != 8 {
		t.Errorf("expected summed token usage 8, got %d", resp.Tokens)
	}
}

func TestZhipuProvider_ChatCompletion_Success(t *testing.T) {
	t.Parallel()

	var got zhipuChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/paas/v4/chat/completions" {
			http.Error(w, "unexpected path", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer zk-test" {
			http.Error(w, "bad credential", http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"你好"},"finish_reason":"stop"}],"usage":{"total_tokens":9}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewZhipuProvider(srv.URL, "zk-test", "glm-4", "embedding-2")
	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages:  []Message{{Role: "user", Content: "hello"}},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if resp.Content != "你好" || resp.Tokens != 9 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if got.Model != "glm-4" {
		t.Errorf("expected default chat model glm-4, got %q", got.Model)
	}
	if got.Stream {
		t.Error("stream must be false for non-streaming completion")
	}
}

func TestZhipuProvider_Embed_Forbidden_ClassifiedAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key disabled", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewZhipuProvider(srv.URL, "zk-bad", "glm-4", "embedding-2")
	_, err := p.Embed(context.Background(), EmbedRequest{Texts: []string{"a"}})
	if !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth for 403, got %v", err)
	}
}
