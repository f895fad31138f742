// Package mcpserver exposes the question answering engine over the Model
// Context Protocol so agent hosts can use the index as a tool. It speaks
// stdio, the transport MCP hosts spawn subprocesses with.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avelasco/docqa/internal/domain/convo"
	"github.com/avelasco/docqa/internal/domain/qa"
	"github.com/avelasco/docqa/internal/infra/llm"
	"github.com/avelasco/docqa/internal/version"
)

// Asker is the engine contract the MCP tools depend on.
type Asker interface {
	Ask(ctx context.Context, req qa.Request) (*qa.Answer, error)
}

// Server bridges MCP tool calls to the engine.
type Server struct {
	engine          Asker
	sessions        *convo.Store
	specs           map[string]llm.ModelSpec
	defaultProvider string
	log             *slog.Logger
}

// New creates a Server. specs holds the configured default ModelSpec per
// provider; logger may be nil.
func New(engine Asker, sessions *convo.Store, specs map[string]llm.ModelSpec, defaultProvider string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine:          engine,
		sessions:        sessions,
		specs:           specs,
		defaultProvider: defaultProvider,
		log:             logger,
	}
}

// askInput is the ask tool's argument schema.
type askInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documentation"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session id for multi-turn conversations"`
	Provider  string `json:"provider,omitempty" jsonschema:"optional model backend override"`
	Model     string `json:"model,omitempty" jsonschema:"optional chat model override"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"optional number of passages to retrieve"`
}

// askCitation is one source passage in the ask tool's result.
type askCitation struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// askOutput is the ask tool's result schema.
type askOutput struct {
	Answer    string        `json:"answer"`
	Citations []askCitation `json:"citations"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
}

// sessionOutput is the new_session tool's result schema.
type sessionOutput struct {
	SessionID string `json:"session_id"`
}

// clearInput is the clear_session tool's argument schema.
type clearInput struct {
	SessionID string `json:"session_id" jsonschema:"id of the session to clear"`
}

// clearOutput is the clear_session tool's result schema.
type clearOutput struct {
	Cleared bool `json:"cleared"`
}

func (s *Server) ask(ctx context.Context, _ *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, askOutput, error) {
	provider := in.Provider
	if provider == "" {
		provider = s.defaultProvider
	}
	spec := s.specs[provider]
	spec.Provider = provider
	if in.Model != "" {
		spec.Model = in.Model
	}
	if in.TopK > 0 {
		spec.TopK = in.TopK
	}

	answer, err := s.engine.Ask(ctx, qa.Request{
		Question:  in.Question,
		SessionID: in.SessionID,
		Spec:      spec,
	})
	if err != nil {
		if kind, ok := qa.KindOf(err); ok {
			return nil, askOutput{}, fmt.Errorf("%s", kind)
		}
		return nil, askOutput{}, err
	}

	out := askOutput{
		Answer:    answer.Text,
		Citations: make([]askCitation, len(answer.Citations)),
		Provider:  answer.Spec.Provider,
		Model:     answer.Spec.Model,
	}
	for i, p := range answer.Citations {
		out.Citations[i] = askCitation{Source: p.Source, Text: p.Text, Score: p.Score}
	}
	return nil, out, nil
}

func (s *Server) newSession(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, sessionOutput, error) {
	sess := s.sessions.Create()
	return nil, sessionOutput{SessionID: sess.ID()}, nil
}

func (s *Server) clearSession(_ context.Context, _ *mcp.CallToolRequest, in clearInput) (*mcp.CallToolResult, clearOutput, error) {
	if in.SessionID == "" {
		return nil, clearOutput{}, fmt.Errorf("session_id is required")
	}
	s.sessions.Clear(in.SessionID)
	return nil, clearOutput{Cleared: true}, nil
}

// build assembles the MCP server with all tools registered.
func (s *Server) build() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "docqa", Version: version.Version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documentation, with citations.",
	}, s.ask)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "new_session",
		Description: "Create a conversation session for follow-up questions.",
	}, s.newSession)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "clear_session",
		Description: "Clear a session's history while keeping its id.",
	}, s.clearSession)

	return srv
}

// Run serves MCP over stdio until ctx is cancelled or the host disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server running on stdio")
	if err := s.build().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcpserver: %w", err)
	}
	return nil
}
