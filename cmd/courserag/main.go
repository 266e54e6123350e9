// Command courserag ingests course documents into a pgvector-backed store
// and answers questions about them, over HTTP or straight from the terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"courserag/internal/models"
	"courserag/pkg/config"
	"courserag/pkg/ingest"
	"courserag/pkg/llm"
	"courserag/pkg/rag"
	"courserag/pkg/session"
	"courserag/pkg/store"
	"courserag/pkg/tools"
	"courserag/server"
)

type options struct {
	configPath string
	docsDir    string
	addr       string
	query      string
	chat       bool
	rebuild    bool
	verbose    bool
}

func main() {
	// A missing .env is fine; keys can come from the real environment.
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to config file")
	flag.StringVar(&opts.docsDir, "docs", "", "Course documents folder to ingest on startup")
	flag.StringVar(&opts.addr, "addr", "", "HTTP listen address")
	flag.StringVar(&opts.query, "query", "", "Ask a single question and exit")
	flag.BoolVar(&opts.chat, "chat", false, "Chat in the terminal instead of serving HTTP")
	flag.BoolVar(&opts.rebuild, "rebuild", false, "Clear the vector store before ingesting")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if err := run(opts); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.docsDir != "" {
		cfg.Ingest.DocsDir = opts.docsDir
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration (%d problems)", len(errs))
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Provider: cfg.Embedder.Provider,
		Model:    cfg.Embedder.Model,
		BaseURL:  cfg.Embedder.BaseURL,
	})
	if err != nil {
		return err
	}

	st, err := store.New(ctx, store.Config{
		ConnString:   cfg.Database.URL,
		CatalogTable: cfg.Database.CatalogTable,
		ContentTable: cfg.Database.ContentTable,
		VectorDim:    cfg.Database.VectorDim,
		BatchSize:    cfg.Database.BatchSize,
		TopK:         cfg.Search.TopK,
		MaxDistance:  cfg.Search.MaxDistance,
		EmbedRate:    cfg.Embedder.RateLimit,
	}, embedder, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	llmCfg := llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}
	model, err := llm.NewModel(llmCfg)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry(
		tools.NewCourseSearchTool(st),
		tools.NewCourseOutlineTool(st),
	)

	system := rag.New(
		st,
		session.NewStore(cfg.Session.MaxHistory),
		llm.NewGenerator(model, llmCfg, logger),
		registry,
		ingest.NewLoader(logger),
		ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		logger,
	)

	if opts.rebuild {
		color.Yellow("Clearing the vector store...")
		if err := st.Clear(ctx); err != nil {
			return err
		}
	}

	if err := ingestDocs(ctx, system, cfg.Ingest.DocsDir); err != nil {
		return err
	}

	switch {
	case opts.query != "":
		return runOnce(ctx, system, opts.query)
	case opts.chat:
		return runChat(ctx, system)
	default:
		return server.New(system, logger).Run(ctx, cfg.Server.Addr)
	}
}

// ingestDocs loads the docs folder before answering anything, so queries
// never race a half-built index. A missing folder just means an empty
// catalog.
func ingestDocs(ctx context.Context, system *rag.System, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		slog.Warn("docs folder not found, skipping ingest", "dir", dir)
		return nil
	}

	total := ingest.CountDocuments(dir)
	if total == 0 {
		slog.Info("no course documents to ingest", "dir", dir)
		return nil
	}

	color.Blue("\nIngesting course documents from %s\n", dir)
	bar := getProgressBar(total, "Loading courses...")

	result, err := system.IngestFolder(ctx, dir, func(string) {
		bar.Add(1)
	})
	if err != nil {
		return err
	}
	bar.Finish()

	color.Green("\n✓ Ingested %d courses (%d chunks), %d already stored\n",
		result.Courses, result.Chunks, result.Skipped)
	return nil
}

func runOnce(ctx context.Context, system *rag.System, query string) error {
	spinner := getSpinner("Searching course materials...")
	answer, sources, err := system.Query(ctx, "", query)
	spinner.Finish()
	fmt.Print("\r")

	if err != nil {
		return err
	}

	color.Cyan("\n%s\n", answer)
	printSources(sources)
	return nil
}

func runChat(ctx context.Context, system *rag.System) error {
	color.Cyan("\nAsk about your courses (type 'exit' to quit)")

	sessionID := system.CreateSession()
	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		spinner := getSpinner("Thinking...")
		answer, sources, err := system.Query(ctx, sessionID, query)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("Assistant: %s\n", answer)
		printSources(sources)
	}
	return scanner.Err()
}

func printSources(sources []models.Source) {
	if len(sources) == 0 {
		return
	}
	faint := color.New(color.Faint).PrintfFunc()
	faint("\nSources:\n")
	for _, src := range sources {
		if src.URL != "" {
			faint("  - %s (%s)\n", src.Label, src.URL)
		} else {
			faint("  - %s\n", src.Label)
		}
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
