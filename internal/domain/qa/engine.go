// Package qa is the question-answering engine: it turns a question plus an
// optional conversation session into a cited answer by embedding the
// question, retrieving context, assembling a bounded prompt, and driving the
// completion call with a bounded retry policy.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/avelasco/docqa/internal/domain/convo"
	"github.com/avelasco/docqa/internal/domain/index"
	"github.com/avelasco/docqa/internal/domain/prompt"
	"github.com/avelasco/docqa/internal/infra/llm"
)

// Request phases, in order. A request that fails leaves the pipeline from
// whatever phase it was in; the session is only touched in phaseUpdating.
type phase string

const (
	phaseReceived   phase = "received"
	phaseEmbedding  phase = "embedding"
	phaseRetrieving phase = "retrieving"
	phaseAssembling phase = "assembling"
	phaseGenerating phase = "generating"
	phaseUpdating   phase = "updating"
	phaseCompleted  phase = "completed"
)

// RetryPolicy bounds transient-error retries: at most MaxAttempts calls and
// at most MaxElapsed total wait, with jittered exponential backoff starting
// at BaseDelay. Zero values fall back to the defaults below.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxElapsed  time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = 15 * time.Second
	}
	return p
}

// Options configures engine defaults applied when a ModelSpec leaves the
// corresponding field zero.
type Options struct {
	TopK         int     // default passages to retrieve
	MinScore     float64 // score floor; negative disables
	PromptBudget int     // default prompt budget, characters
	Retry        RetryPolicy
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 4
	}
	if o.PromptBudget <= 0 {
		o.PromptBudget = 8000
	}
	o.Retry = o.Retry.withDefaults()
	return o
}

// Request is one question against the engine. SessionID is optional; empty
// means a stateless one-shot question.
type Request struct {
	Question  string
	SessionID string
	Spec      llm.ModelSpec
}

// Answer is a successful result: the generated text, the passages that were
// actually part of the prompt (the citations), and the spec that produced it.
type Answer struct {
	Text      string
	Citations []index.Passage
	Spec      llm.ModelSpec
	Tokens    int
}

// Engine coordinates registry, retriever, assembler and sessions.
type Engine struct {
	registry  *llm.Registry
	retriever index.Retriever
	assembler *prompt.Assembler
	sessions  *convo.Store
	opts      Options
	log       *slog.Logger
}

// NewEngine wires an Engine. logger may be nil, which disables engine logs.
func NewEngine(registry *llm.Registry, retriever index.Retriever, assembler *prompt.Assembler, sessions *convo.Store, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		registry:  registry,
		retriever: retriever,
		assembler: assembler,
		sessions:  sessions,
		opts:      opts.withDefaults(),
		log:       logger,
	}
}

// Sessions exposes the session store for transport-level session management.
func (e *Engine) Sessions() *convo.Store { return e.sessions }

// Ask answers one question. Every failure is a *Error with a terminal kind;
// transient provider errors are retried internally and never surface as-is.
// Concurrent calls with the same SessionID are serialized; calls on
// different sessions run in parallel.
func (e *Engine) Ask(ctx context.Context, req Request) (*Answer, error) {
	// Received: validate the question and resolve the backend up front so
	// an unknown model fails before any network call.
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, errKind(KindInvalidRequest, fmt.Errorf("empty question"))
	}
	provider, err := e.registry.Resolve(req.Spec)
	if err != nil {
		return nil, errKind(KindUnknownModel, err)
	}

	var session *convo.Session
	if req.SessionID != "" {
		s, ok := e.sessions.Get(req.SessionID)
		if !ok {
			return nil, errKind(KindInvalidRequest, fmt.Errorf("unknown session %q", req.SessionID))
		}
		session = s
		// Hold the request lock through the session update so same-session
		// requests cannot interleave their histories.
		session.Lock()
		defer session.Unlock()
	}

	e.logPhase(req, phaseReceived)

	// Embedding.
	e.logPhase(req, phaseEmbedding)
	var embedding []float32
	err = e.withRetry(ctx, func(ctx context.Context) error {
		resp, embedErr := provider.Embed(ctx, llm.EmbedRequest{Texts: []string{question}})
		if embedErr != nil {
			return embedErr
		}
		if len(resp.Embeddings) != 1 || len(resp.Embeddings[0]) == 0 {
			return fmt.Errorf("provider returned %d embeddings for 1 text: %w",
				len(resp.Embeddings), llm.ErrUnavailable)
		}
		embedding = resp.Embeddings[0]
		return nil
	})
	if err != nil {
		return nil, errKind(KindEmbeddingFailed, err)
	}

	// Retrieving. An empty result set is not an error; the request degrades
	// to direct generation with zero context.
	e.logPhase(req, phaseRetrieving)
	topK := req.Spec.TopK
	if topK <= 0 {
		topK = e.opts.TopK
	}
	passages, err := e.retriever.Retrieve(ctx, embedding, topK, e.opts.MinScore)
	if err != nil {
		return nil, errKind(KindIndexUnavailable, err)
	}

	// Assembling.
	e.logPhase(req, phaseAssembling)
	budget := req.Spec.PromptBudget
	if budget <= 0 {
		budget = e.opts.PromptBudget
	}
	var history []convo.Turn
	if session != nil {
		history = session.History()
	}
	assembled, err := e.assembler.Assemble(question, passages, history, budget)
	if err != nil {
		return nil, errKind(KindPromptTooLarge, err)
	}

	// Generating. The session stays untouched on failure: no partial turn.
	e.logPhase(req, phaseGenerating)
	var completion *llm.ChatResponse
	err = e.withRetry(ctx, func(ctx context.Context) error {
		resp, chatErr := provider.ChatCompletion(ctx, llm.ChatRequest{
			Messages:    []llm.Message{{Role: "user", Content: assembled.Text}},
			Temperature: req.Spec.Temperature,
			MaxTokens:   req.Spec.MaxTokens,
		})
		if chatErr != nil {
			return chatErr
		}
		if strings.TrimSpace(resp.Content) == "" {
			// An empty completion is a failure, never an empty answer.
			return fmt.Errorf("provider returned empty completion: %w", llm.ErrUnavailable)
		}
		completion = resp
		return nil
	})
	if err != nil {
		return nil, errKind(KindGenerationFailed, err)
	}

	// Updating: record the exchange, then apply the truncation policy
	// (Append enforces the session's turn cap).
	if session != nil {
		e.logPhase(req, phaseUpdating)
		session.Append(question, completion.Content)
	}

	e.logPhase(req, phaseCompleted)
	return &Answer{
		Text:      completion.Content,
		Citations: assembled.Included,
		Spec:      req.Spec,
		Tokens:    completion.Tokens,
	}, nil
}

// withRetry runs op with jittered exponential backoff. Only errors marked
// retryable by the llm package are retried; auth and request-shape errors
// fail immediately. Total calls are capped by MaxAttempts and total backoff
// wait by MaxElapsed.
func (e *Engine) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	p := e.opts.Retry
	b := retry.NewExponential(p.BaseDelay)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
	b = retry.WithMaxDuration(p.MaxElapsed, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if llm.Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

func (e *Engine) logPhase(req Request, ph phase) {
	e.log.Debug("qa request",
		slog.String("phase", string(ph)),
		slog.String("session", req.SessionID),
		slog.String("provider", req.Spec.Provider))
}
