package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ragchatd/internal/config"
	"github.com/fyrsmithlabs/ragchatd/internal/embeddings"
	"github.com/fyrsmithlabs/ragchatd/internal/llm"
	"github.com/fyrsmithlabs/ragchatd/internal/logging"
	"github.com/fyrsmithlabs/ragchatd/internal/rag"
	"github.com/fyrsmithlabs/ragchatd/internal/vectorstore"
)

var (
	askMode string
	askTopK int
)

// askCmd answers a single question from the indexed corpus.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed corpus",
	Long: `Run one query through the full retrieval pipeline and print the answer.

Examples:
  # Plain question answering
  ragctl ask "What is attention in transformers?"

  # Structured summary with more passages
  ragctl ask --mode summary --k 10 "Summarize the training setup"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askMode, "mode", rag.ModeQA, "answer mode: qa or summary")
	askCmd.Flags().IntVar(&askTopK, "k", 0, "number of passages to retrieve (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	completer, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}

	retriever, err := rag.NewRetriever(embedder, store, logger)
	if err != nil {
		return fmt.Errorf("initializing retriever: %w", err)
	}

	topK := cfg.RAG.TopK
	if askTopK > 0 {
		topK = askTopK
	}
	engine, err := rag.NewEngine(retriever, completer, topK, logger)
	if err != nil {
		return fmt.Errorf("initializing query engine: %w", err)
	}

	fmt.Println(engine.Answer(cmd.Context(), args[0], askMode))
	return nil
}
