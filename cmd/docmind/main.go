package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/docmind/docmind/pkg/config"
	"github.com/docmind/docmind/pkg/corpus"
	"github.com/docmind/docmind/pkg/llms"
	"github.com/docmind/docmind/pkg/reasoning"
	"github.com/docmind/docmind/pkg/retrieval"
	"github.com/docmind/docmind/pkg/server"
	"github.com/docmind/docmind/pkg/summarize"
	"github.com/docmind/docmind/pkg/vector"

	embedderspkg "github.com/docmind/docmind/pkg/embedders"
)

var version = "dev"

type cli struct {
	Config string `short:"c" default:"docmind.yaml" help:"Path to the configuration file."`

	Serve     serveCmd     `cmd:"" default:"1" help:"Run the question-answering HTTP service."`
	Sync      syncCmd      `cmd:"" help:"Index the document corpus into the vector store."`
	Summarize summarizeCmd `cmd:"" help:"Summarize support threads into the summary store."`
	Version   versionCmd   `cmd:"" help:"Print the version."`
}

func main() {
	var cli cli
	kctx := kong.Parse(&cli,
		kong.Name("docmind"),
		kong.Description("Documentation question answering service."),
		kong.UsageOnError(),
	)
	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "docmind: %v\n", err)
		os.Exit(1)
	}
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Println(version)
	return nil
}

// setup loads the configuration and installs the logger. The returned closer
// flushes the log file, if any.
func setup(path string) (*config.Config, func() error, error) {
	config.LoadDotEnv(path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	closer, err := cfg.Logger.SetupLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newStore(cfg *config.Config) (*corpus.Store, error) {
	var loader corpus.Loader
	switch cfg.Corpus.Source {
	case "file":
		loader = corpus.NewFileLoader(cfg.Corpus.Path)
	case "sqlite":
		loader = corpus.NewSQLLoader(cfg.Corpus.Path)
	default:
		return nil, config.NewConfigError("corpus", fmt.Sprintf("unknown source: %s", cfg.Corpus.Source))
	}
	ttl := time.Duration(cfg.Corpus.RefreshTTLHours) * time.Hour
	return corpus.NewStore(loader, ttl), nil
}

type serveCmd struct{}

func (serveCmd) Run(cli *cli) error {
	cfg, closeLog, err := setup(cli.Config)
	if err != nil {
		return err
	}
	defer closeLog()

	registry := llms.NewRegistry()
	defer registry.Close()

	preprocessorLLM, err := registry.CreateFromConfig("preprocessor", &cfg.Preprocessor)
	if err != nil {
		return err
	}
	responderLLM, err := registry.CreateFromConfig("responder", &cfg.Responder)
	if err != nil {
		return err
	}
	embedder, err := embedderspkg.NewFromConfig(&cfg.Embedder)
	if err != nil {
		return err
	}
	defer embedder.Close()

	vectorProvider, err := vector.NewFromConfig(&cfg.Vector)
	if err != nil {
		return err
	}
	defer vectorProvider.Close()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	orchestrator := reasoning.NewOrchestrator(
		store,
		retrieval.NewEngine(embedder, vectorProvider, cfg.Vector.Collection, cfg.Retrieval),
		retrieval.NewContextFilter(cfg.Reasoning),
		reasoning.NewPreprocessor(preprocessorLLM),
		reasoning.NewResponder(responderLLM),
		cfg.Reasoning,
	)

	ctx, cancel := signalContext()
	defer cancel()

	slog.Info("starting docmind", "version", version,
		"vector_backend", cfg.Vector.Type, "corpus_source", cfg.Corpus.Source)
	return server.New(cfg.Server, orchestrator, store).Start(ctx)
}

type syncCmd struct{}

func (syncCmd) Run(cli *cli) error {
	cfg, closeLog, err := setup(cli.Config)
	if err != nil {
		return err
	}
	defer closeLog()

	embedder, err := embedderspkg.NewFromConfig(&cfg.Embedder)
	if err != nil {
		return err
	}
	defer embedder.Close()

	vectorProvider, err := vector.NewFromConfig(&cfg.Vector)
	if err != nil {
		return err
	}
	defer vectorProvider.Close()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	syncer := corpus.NewSyncer(store, embedder, vectorProvider, cfg.Vector.Collection)
	indexed, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}
	slog.Info("corpus sync complete", "indexed", indexed)
	return nil
}

type summarizeCmd struct {
	Threads string `arg:"" help:"Path to the thread export (JSONL)."`
}

func (c summarizeCmd) Run(cli *cli) error {
	cfg, closeLog, err := setup(cli.Config)
	if err != nil {
		return err
	}
	defer closeLog()

	registry := llms.NewRegistry()
	defer registry.Close()

	provider, err := registry.CreateFromConfig("summarizer", &cfg.Responder)
	if err != nil {
		return err
	}

	store, err := summarize.OpenStore(cfg.Summarizer.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	job := summarize.New(provider, &summarize.FileThreadSource{Path: c.Threads}, store, cfg.Summarizer)
	saved, err := job.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("summarization complete", "saved", saved)
	return nil
}
