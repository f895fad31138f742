package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/avelasco/docqa/internal/domain/convo"
	"github.com/avelasco/docqa/internal/domain/index"
	"github.com/avelasco/docqa/internal/domain/prompt"
	"github.com/avelasco/docqa/internal/domain/qa"
	"github.com/avelasco/docqa/internal/infra/config"
	"github.com/avelasco/docqa/internal/infra/eventbus"
	"github.com/avelasco/docqa/internal/infra/llm"
	"github.com/avelasco/docqa/internal/infra/sqlite"
	"github.com/avelasco/docqa/internal/ingest"
)

// app holds the wired object graph shared by the serve, mcp, index and ask
// commands.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	db       *sql.DB
	store    index.Store
	sessions *convo.Store
	registry *llm.Registry
	engine   *qa.Engine
	bus      *eventbus.Bus
	ingestor *ingest.Ingestor
}

// specsFromConfig returns the default ModelSpec per configured provider.
func specsFromConfig(cfg config.Config) map[string]llm.ModelSpec {
	return map[string]llm.ModelSpec{
		"openai": {Provider: "openai", Model: cfg.OpenAI.ChatModel, EmbedModel: cfg.OpenAI.EmbedModel},
		"zhipu":  {Provider: "zhipu", Model: cfg.Zhipu.ChatModel, EmbedModel: cfg.Zhipu.EmbedModel},
		"ollama": {Provider: "ollama", Model: cfg.Ollama.ChatModel, EmbedModel: cfg.Ollama.EmbedModel},
	}
}

// constructorsFromConfig returns the provider constructors the registry
// builds adapters with. Key lookup happens at construction time, so a
// missing credential fails the first request instead of startup.
func constructorsFromConfig(cfg config.Config) map[string]llm.Constructor {
	return map[string]llm.Constructor{
		"openai": func(spec llm.ModelSpec) (llm.Provider, error) {
			key := cfg.OpenAI.APIKey()
			if key == "" {
				return nil, fmt.Errorf("openai: %s is not set", cfg.OpenAI.APIKeyEnv)
			}
			return llm.NewOpenAIProvider(cfg.OpenAI.BaseURL, key, spec.Model, spec.EmbedModel), nil
		},
		"zhipu": func(spec llm.ModelSpec) (llm.Provider, error) {
			key := cfg.Zhipu.APIKey()
			if key == "" {
				return nil, fmt.Errorf("zhipu: %s is not set", cfg.Zhipu.APIKeyEnv)
			}
			return llm.NewZhipuProvider(cfg.Zhipu.BaseURL, key, spec.Model, spec.EmbedModel), nil
		},
		"ollama": func(spec llm.ModelSpec) (llm.Provider, error) {
			return llm.NewOllamaProvider(cfg.Ollama.BaseURL, spec.Model, spec.EmbedModel), nil
		},
	}
}

// newApp opens the index and wires the engine and ingest pipeline.
func newApp(cfg config.Config, log *slog.Logger) (*app, error) {
	db, err := sqlite.NewDB(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	store, err := index.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init index store: %w", err)
	}

	registry := llm.NewRegistry(constructorsFromConfig(cfg))
	sessions := convo.NewStore(cfg.SessionMaxTurns)
	assembler := prompt.NewAssembler(cfg.SystemPrompt, cfg.ContextShare)

	engine := qa.NewEngine(registry, store, assembler, sessions, qa.Options{
		TopK:         cfg.TopK,
		MinScore:     cfg.MinScore,
		PromptBudget: cfg.PromptBudget,
		Retry: qa.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.RetryBaseDelay(),
			MaxElapsed:  cfg.Retry.RetryMaxElapsed(),
		},
	}, log)

	bus := eventbus.New()

	defaultSpec := specsFromConfig(cfg)[cfg.DefaultProvider]
	defaultSpec.Provider = cfg.DefaultProvider
	embedder, err := registry.Resolve(defaultSpec)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("resolve default provider %q: %w", cfg.DefaultProvider, err)
	}
	ingestor := ingest.NewIngestor(store, embedder, ingest.NewSplitter(0, 0), bus, log)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		store:    store,
		sessions: sessions,
		registry: registry,
		engine:   engine,
		bus:      bus,
		ingestor: ingestor,
	}, nil
}

// close releases the index handle. Serve hands the handle to the HTTP
// server instead, which closes it on shutdown.
func (a *app) close() error {
	return a.db.Close()
}
