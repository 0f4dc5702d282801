// Ragchatd is a retrieval-augmented chat service over a PDF corpus.
//
// The daemon serves the chat HTTP API backed by a vector index, an
// embedding service, and an OpenAI-compatible completion model.
//
// Configuration comes from an optional YAML file plus environment
// variables. A .env file in the working directory is honored.
//
// Usage:
//
//	# Start with defaults
//	ragchatd
//
//	# Configure via environment
//	SERVER_PORT=9000 LLM_API_KEY=... ragchatd
//
//	# Or via file
//	ragchatd -config ragchatd.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/chat"
	"github.com/fyrsmithlabs/ragchatd/internal/config"
	"github.com/fyrsmithlabs/ragchatd/internal/embeddings"
	httpserver "github.com/fyrsmithlabs/ragchatd/internal/http"
	"github.com/fyrsmithlabs/ragchatd/internal/llm"
	"github.com/fyrsmithlabs/ragchatd/internal/logging"
	"github.com/fyrsmithlabs/ragchatd/internal/rag"
	"github.com/fyrsmithlabs/ragchatd/internal/vectorstore"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run wires all services and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
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

	// Fail at startup, not on the first query, when the embedding model
	// and index dimensions disagree.
	probeCtx, probeCancel := context.WithTimeout(ctx, 30*time.Second)
	defer probeCancel()
	if err := embedder.Probe(probeCtx); err != nil {
		return fmt.Errorf("embedding service unavailable: %w", err)
	}

	completer, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}

	retriever, err := rag.NewRetriever(embedder, store, logger)
	if err != nil {
		return fmt.Errorf("initializing retriever: %w", err)
	}

	engine, err := rag.NewEngine(retriever, completer, cfg.RAG.TopK, logger)
	if err != nil {
		return fmt.Errorf("initializing query engine: %w", err)
	}

	chatStore, err := chat.OpenStore(cfg.Chat.Path, logger)
	if err != nil {
		return fmt.Errorf("opening chat store: %w", err)
	}
	defer chatStore.Close()

	manager, err := chat.NewManager(chatStore, engine, logger)
	if err != nil {
		return fmt.Errorf("initializing chat manager: %w", err)
	}

	server, err := httpserver.NewServer(manager, logger, cfg.Server)
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("ragchatd started",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("model", cfg.LLM.Model),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	return nil
}
