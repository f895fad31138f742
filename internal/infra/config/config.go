// Package config loads application configuration from an optional YAML file
// plus environment variables. Env values override file values; every field
// has a safe default so the binary runs locally with no setup. Credentials
// are never stored in the file itself: the file names the env var that holds
// each API key, and a .env file is honored for local development.
// Configuration is immutable once loaded; there is no hot reload.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig configures one remote or local model backend.
type ProviderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	ChatModel  string `yaml:"chat_model"`
	EmbedModel string `yaml:"embed_model"`
}

// RetryConfig bounds transient-error retries against providers.
type RetryConfig struct {
	MaxAttempts   int `yaml:"max_attempts"`
	BaseDelayMS   int `yaml:"base_delay_ms"`
	MaxElapsedSec int `yaml:"max_elapsed_sec"`
}

// Config holds runtime configuration for docqa.
type Config struct {
	Listen          string `yaml:"listen"`           // HTTP listen address
	AuthSecret      string `yaml:"-"`                // DOCQA_AUTH_SECRET; empty disables API auth
	APIPasswordHash string `yaml:"-"`                // DOCQA_API_PASSWORD_HASH; bcrypt hash checked by /auth/token
	IndexPath       string `yaml:"index_path"`       // SQLite index file
	DocsPath        string `yaml:"docs_path"`        // documentation corpus root for `docqa index`
	DefaultProvider string `yaml:"default_provider"` // "openai" | "zhipu" | "ollama"

	SystemPrompt string  `yaml:"system_prompt"` // empty uses the built-in instructions
	PromptBudget int     `yaml:"prompt_budget"` // characters
	ContextShare float64 `yaml:"context_share"` // fraction of free budget reserved for passages

	TopK            int     `yaml:"top_k"`
	MinScore        float64 `yaml:"min_score"` // negative disables the floor
	SessionMaxTurns int     `yaml:"session_max_turns"`

	Retry RetryConfig `yaml:"retry"`

	OpenAI ProviderConfig `yaml:"openai"`
	Zhipu  ProviderConfig `yaml:"zhipu"`
	Ollama ProviderConfig `yaml:"ollama"`
}

const (
	envListen       = "DOCQA_LISTEN"
	envAuthSecret   = "DOCQA_AUTH_SECRET"
	envPasswordHash = "DOCQA_API_PASSWORD_HASH"
	envIndexPath    = "DOCQA_INDEX_PATH"
	envDocsPath     = "DOCQA_DOCS_PATH"
	envProvider     = "DOCQA_PROVIDER"
)

// Default returns the configuration used when no file and no env are set.
func Default() Config {
	return Config{
		Listen:          "0.0.0.0:8080",
		IndexPath:       "data/index.sqlite",
		DocsPath:        "knowledge",
		DefaultProvider: "ollama",
		PromptBudget:    8000,
		ContextShare:    0.5,
		TopK:            4,
		MinScore:        -1,
		SessionMaxTurns: 10,
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelayMS:   200,
			MaxElapsedSec: 15,
		},
		OpenAI: ProviderConfig{
			BaseURL:    "https://api.openai.com",
			APIKeyEnv:  "OPENAI_API_KEY",
			ChatModel:  "gpt-4o-mini",
			EmbedModel: "text-embedding-3-small",
		},
		Zhipu: ProviderConfig{
			BaseURL:    "https://open.bigmodel.cn",
			APIKeyEnv:  "ZHIPUAI_API_KEY",
			ChatModel:  "glm-4",
			EmbedModel: "embedding-2",
		},
		Ollama: ProviderConfig{
			BaseURL:    "http://localhost:11434",
			ChatModel:  "llama3.2:3b",
			EmbedModel: "nomic-embed-text",
		},
	}
}

// Load reads configuration: defaults, then the YAML file at path (skipped
// when path is empty or missing), then env overrides. A .env file in the
// working directory is loaded first so local development needs no exports.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
			}
		}
	}

	cfg.Listen = envOr(envListen, cfg.Listen)
	cfg.AuthSecret = envOr(envAuthSecret, "")
	cfg.APIPasswordHash = envOr(envPasswordHash, "")
	cfg.IndexPath = envOr(envIndexPath, cfg.IndexPath)
	cfg.DocsPath = envOr(envDocsPath, cfg.DocsPath)
	cfg.DefaultProvider = envOr(envProvider, cfg.DefaultProvider)

	return cfg, nil
}

// APIKey resolves the provider's credential from the environment.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// RetryBaseDelay returns the configured backoff base as a Duration.
func (r RetryConfig) RetryBaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMS) * time.Millisecond
}

// RetryMaxElapsed returns the configured total-wait cap as a Duration.
func (r RetryConfig) RetryMaxElapsed() time.Duration {
	return time.Duration(r.MaxElapsedSec) * time.Second
}

// envOr returns the value of the environment variable key, or fallback if
// not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
