package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/graphloom/graphloom/internal/config"
	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/ai/ollama"
	"github.com/graphloom/graphloom/pkg/ai/openai"
	"github.com/graphloom/graphloom/pkg/common"
	"github.com/graphloom/graphloom/pkg/graph"
	"github.com/graphloom/graphloom/pkg/loader"
	"github.com/graphloom/graphloom/pkg/loader/s3"
	"github.com/graphloom/graphloom/pkg/loader/scan"
	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/logger/console"
	"github.com/graphloom/graphloom/pkg/store"
	"github.com/graphloom/graphloom/pkg/store/memory"
	storeneo4j "github.com/graphloom/graphloom/pkg/store/neo4j"
	"github.com/graphloom/graphloom/pkg/viz"

	"github.com/spf13/cobra"
)

var (
	flagDebug bool

	flagChunkSize    int
	flagChunkOverlap int
	flagParallel     int
	flagDryRun       bool
	flagS3Bucket     string

	flagQuery  string
	flagLimit  int
	flagOut    string
	flagNoOpen bool
)

func main() {
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{}))

	root := &cobra.Command{
		Use:           "graphloom",
		Short:         "Build and explore knowledge graphs from documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	ingest := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Extract entities and relationships from documents into the graph store",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIngest,
	}
	ingest.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "chunk window size in tokens (default from CHUNK_SIZE)")
	ingest.Flags().IntVar(&flagChunkOverlap, "chunk-overlap", -1, "token overlap between chunks (default from CHUNK_OVERLAP)")
	ingest.Flags().IntVar(&flagParallel, "parallel", 0, "concurrent extraction calls (default from PARALLEL_EXTRACTIONS)")
	ingest.Flags().BoolVar(&flagDryRun, "dry-run", false, "extract into an in-memory store, write nothing to the database")
	ingest.Flags().StringVar(&flagS3Bucket, "s3-bucket", "", "read inputs from this bucket instead of a local directory (default from S3_BUCKET)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Render the stored graph as an interactive HTML page",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}
	show.Flags().StringVar(&flagQuery, "query", "", "Cypher query returning source, relationship, target")
	show.Flags().IntVar(&flagLimit, "limit", viz.DefaultLimit, "maximum number of relationships to render")
	show.Flags().StringVar(&flagOut, "out", "", "output HTML path (default: a temp file)")
	show.Flags().BoolVar(&flagNoOpen, "no-open", false, "do not open the result in a browser")

	root.AddCommand(ingest, show)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug || flagDebug,
	}))

	return cfg, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = flagChunkSize
	}
	if cmd.Flags().Changed("chunk-overlap") {
		cfg.ChunkOverlap = flagChunkOverlap
	}
	if cmd.Flags().Changed("parallel") {
		cfg.ParallelExtractions = flagParallel
	}
	if cmd.Flags().Changed("s3-bucket") {
		cfg.S3Bucket = flagS3Bucket
	}
	ingestDir := cfg.IngestDir
	if len(args) > 0 {
		ingestDir = args[0]
	}

	aiClient, err := newAIClient(cfg)
	if err != nil {
		return err
	}

	files, err := collectFiles(ctx, cfg, ingestDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no documents found", "dir", ingestDir)
		return nil
	}
	logger.Info("starting ingestion", "files", len(files), "parallel", cfg.ParallelExtractions)

	var storage store.GraphStorage
	if flagDryRun {
		storage = memory.NewInMemoryStorage()
	} else {
		if err := cfg.RequireStore(); err != nil {
			return err
		}
		manager := storeneo4j.NewManager(storeneo4j.NewManagerParams{
			URI:      cfg.StoreURI,
			Username: cfg.StoreUsername,
			Password: cfg.StorePassword,
		})
		defer func() {
			if err := manager.Release(context.Background()); err != nil {
				logger.Warn("failed to close store connection", "error", err)
			}
		}()

		storage = storeneo4j.NewGraphDBStorage(manager,
			storeneo4j.WithMaxRetries(cfg.MaxRetries),
			storeneo4j.WithTimeout(cfg.StoreTimeout),
		)
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		ParallelExtractions: cfg.ParallelExtractions,
		MaxRetries:          cfg.MaxRetries,
		ExtractTimeout:      cfg.ExtractTimeout,
	})
	if err != nil {
		return err
	}

	summary, err := client.ProcessDocuments(ctx, files, aiClient, storage)
	reportSummary(summary, aiClient)
	if err != nil {
		return err
	}

	if flagDryRun {
		logger.Info("dry run complete, nothing was persisted")
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.RequireStore(); err != nil {
		return err
	}
	manager := storeneo4j.NewManager(storeneo4j.NewManagerParams{
		URI:      cfg.StoreURI,
		Username: cfg.StoreUsername,
		Password: cfg.StorePassword,
	})
	defer func() {
		if err := manager.Release(context.Background()); err != nil {
			logger.Warn("failed to close store connection", "error", err)
		}
	}()

	storage := storeneo4j.NewGraphDBStorage(manager, storeneo4j.WithTimeout(cfg.StoreTimeout))

	path, err := viz.Render(ctx, storage, flagQuery, flagLimit, flagOut)
	if err != nil {
		return err
	}
	logger.Info("graph written", "path", path)

	if !flagNoOpen {
		if err := viz.Open(path); err != nil {
			logger.Warn("failed to open browser", "path", path, "error", err)
		}
	}
	return nil
}

// newAIClient builds the configured reasoning-service adapter.
func newAIClient(cfg *config.Config) (ai.Client, error) {
	switch cfg.AIAdapter {
	case config.AdapterOllama:
		return ollama.NewGraphOllamaClient(ollama.NewGraphOllamaClientParams{
			ExtractionModel:       cfg.AIExtractModel,
			BaseURL:               cfg.AIURL,
			ApiKey:                cfg.AIKey,
			MaxConcurrentRequests: int64(cfg.ParallelExtractions),
		})
	case config.AdapterOpenAI:
		return openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
			ExtractionModel: cfg.AIExtractModel,
			ChatURL:         cfg.AIURL,
			ChatKey:         cfg.AIKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI adapter: %s", cfg.AIAdapter)
	}
}

// collectFiles lists source documents from the configured S3 bucket, or
// from the local ingest directory when no bucket is set. Both paths
// apply the same extension routing.
func collectFiles(ctx context.Context, cfg *config.Config, dir string) ([]loader.SourceFile, error) {
	if cfg.S3Bucket != "" {
		s3Loader, err := s3.NewS3FileLoader(ctx, s3.NewS3FileLoaderParams{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return scan.Bucket(ctx, s3Loader, "")
	}
	return scan.Directory(dir)
}

func reportSummary(summary common.RunSummary, aiClient ai.Client) {
	metrics := aiClient.GetMetrics()
	logger.Info("ingestion finished",
		"files_processed", summary.FilesProcessed,
		"files_skipped", summary.FilesSkipped,
		"chunks_processed", summary.ChunksProcessed,
		"chunks_skipped", len(summary.SkippedChunks),
		"nodes_created", summary.Writes.NodesCreated,
		"nodes_merged", summary.Writes.NodesMerged,
		"edges_created", summary.Writes.EdgesCreated,
		"edges_merged", summary.Writes.EdgesMerged,
		"tokens_used", metrics.TotalTokens,
	)
	for _, failure := range summary.LoadFailures {
		logger.Warn("file was skipped", "path", failure.Path, "reason", failure.Reason)
	}
	for _, skipped := range summary.SkippedChunks {
		logger.Warn("chunk was skipped", "source", skipped.Source, "index", skipped.SequenceIndex, "reason", skipped.Reason)
	}
}
