// docqa answers questions about a documentation corpus using retrieval
// augmented generation. One binary carries every role: HTTP API, MCP stdio
// server, corpus indexer and one-shot CLI question.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelasco/docqa/internal/api"
	"github.com/avelasco/docqa/internal/domain/qa"
	"github.com/avelasco/docqa/internal/infra/config"
	"github.com/avelasco/docqa/internal/mcpserver"
	"github.com/avelasco/docqa/internal/server"
	"github.com/avelasco/docqa/internal/version"
	pkgauth "github.com/avelasco/docqa/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("docqa", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "docqa.yaml", "Path to the YAML config file")

	if err := fs.Parse(args); err != nil {
		printHelp(out)
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}
	if *showHelp || fs.NArg() == 0 {
		printHelp(out)
		if *showHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		return 1
	}

	// Logs go to stderr; on the mcp command stdout belongs to the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "serve":
		return cmdServe(cfg, log)
	case "mcp":
		return cmdMCP(cfg, log)
	case "index":
		return cmdIndex(cfg, log, rest, out)
	case "ask":
		return cmdAsk(cfg, log, rest, out)
	default:
		fmt.Fprintf(os.Stderr, "docqa: unknown command %q\n", cmd)
		printHelp(out)
		return 2
	}
}

// cmdServe runs the HTTP API until interrupted.
func cmdServe(cfg config.Config, log *slog.Logger) int {
	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		return 1
	}

	var authn *pkgauth.Authenticator
	if cfg.AuthSecret != "" {
		authn, err = pkgauth.New(cfg.AuthSecret, 0)
		if err != nil {
			log.Error("auth setup failed", slog.Any("error", err))
			return 1
		}
	}

	router := api.NewRouter(api.Deps{
		Engine:          a.engine,
		Sessions:        a.sessions,
		Store:           a.store,
		Ingestor:        a.ingestor,
		Registry:        a.registry,
		Specs:           specsFromConfig(cfg),
		DefaultProvider: cfg.DefaultProvider,
		DocsRoot:        cfg.DocsPath,
		Bus:             a.bus,
		Authn:           authn,
		PasswordHash:    cfg.APIPasswordHash,
		Log:             log,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Listen
	srv := server.NewServer(router, a.db, srvCfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", slog.Any("error", err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.Any("error", err))
		return 1
	}
	return 0
}

// cmdMCP serves the engine over MCP stdio until the host disconnects.
func cmdMCP(cfg config.Config, log *slog.Logger) int {
	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		return 1
	}
	defer a.close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.New(a.engine, a.sessions, specsFromConfig(cfg), cfg.DefaultProvider, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("mcp server failed", slog.Any("error", err))
		return 1
	}
	return 0
}

// cmdIndex runs one full indexing pass over the documentation tree.
func cmdIndex(cfg config.Config, log *slog.Logger, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("docqa index", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	docs := fs.String("docs", cfg.DocsPath, "Documentation root to index")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		return 1
	}
	defer a.close() //nolint:errcheck

	n, err := a.ingestor.Run(context.Background(), *docs)
	if err != nil {
		log.Error("indexing failed", slog.Any("error", err))
		return 1
	}
	fmt.Fprintf(out, "indexed %d passages from %s\n", n, *docs) //nolint:errcheck
	return 0
}

// cmdAsk answers one question from the command line, without a session.
func cmdAsk(cfg config.Config, log *slog.Logger, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("docqa ask", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	providerName := fs.String("provider", cfg.DefaultProvider, "Model backend to use")
	model := fs.String("model", "", "Chat model override")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "docqa: ask needs a question") //nolint:errcheck
		return 2
	}

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", slog.Any("error", err))
		return 1
	}
	defer a.close() //nolint:errcheck

	spec := specsFromConfig(cfg)[*providerName]
	spec.Provider = *providerName
	if *model != "" {
		spec.Model = *model
	}

	answer, err := a.engine.Ask(context.Background(), qa.Request{Question: question, Spec: spec})
	if err != nil {
		fmt.Fprintf(os.Stderr, "docqa: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, answer.Text) //nolint:errcheck
	if len(answer.Citations) > 0 {
		fmt.Fprintln(out, "\nSources:") //nolint:errcheck
		for i, c := range answer.Citations {
			fmt.Fprintf(out, "  [%d] %s (score %.2f)\n", i+1, c.Source, c.Score) //nolint:errcheck
		}
	}
	return 0
}

func printHelp(out io.Writer) {
	helpText := `docqa - documentation question answering

Usage:
  docqa [options] <command> [command options]

Options:
  --version         Show version information
  --help            Show this help message
  --config <path>   YAML config file (default docqa.yaml)

Commands:
  serve             Start the HTTP API
  mcp               Serve the engine over MCP stdio
  index [--docs D]  Index the documentation tree
  ask <question>    Answer one question and exit

Examples:
  docqa index --docs ./knowledge
  docqa serve
  docqa ask how do I configure retries?`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
