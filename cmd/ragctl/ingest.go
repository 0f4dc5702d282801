package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/chunker"
	"github.com/fyrsmithlabs/ragchatd/internal/config"
	"github.com/fyrsmithlabs/ragchatd/internal/document"
	"github.com/fyrsmithlabs/ragchatd/internal/embeddings"
	"github.com/fyrsmithlabs/ragchatd/internal/ingest"
	"github.com/fyrsmithlabs/ragchatd/internal/logging"
	"github.com/fyrsmithlabs/ragchatd/internal/vectorstore"
)

// ingestCmd indexes a directory of PDFs.
var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Ingest a directory of PDFs into the vector index",
	Long: `Load every PDF in a directory, split pages into chunks, embed them,
and upsert them into the configured vector index.

Re-running over the same directory overwrites existing chunks rather
than duplicating them.

Examples:
  # Ingest the papers directory
  ragctl ingest ./papers

  # With an explicit configuration file
  ragctl ingest --config ragchatd.yaml ./papers`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logging.Sync(logger)

	store, err := vectorstore.New(cfg.VectorStore, logger)
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	defer store.Close()

	embedder, err := embeddings.NewService(cfg.Embeddings, cfg.VectorStore.VectorSize)
	if err != nil {
		return fmt.Errorf("initializing embedding service: %w", err)
	}
	if err := embedder.Probe(cmd.Context()); err != nil {
		return fmt.Errorf("embedding service unavailable: %w", err)
	}

	splitter, err := chunker.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("initializing splitter: %w", err)
	}

	pipeline, err := ingest.NewPipeline(document.NewLoader(logger), splitter, embedder, store, logger)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	result, err := pipeline.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	logger.Info("ingestion finished",
		zap.Int("documents", result.Documents),
		zap.Int("chunks", result.Chunks),
		zap.Duration("duration", result.Duration),
	)
	fmt.Printf("Ingested %d chunks from %d pages in %s\n", result.Chunks, result.Documents, result.Duration.Round(time.Millisecond))
	return nil
}
