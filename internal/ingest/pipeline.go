// Package ingest turns a directory of PDFs into embedded, indexed chunks.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/chunker"
	"github.com/fyrsmithlabs/ragchatd/internal/document"
	"github.com/fyrsmithlabs/ragchatd/internal/vectorstore"
)

var tracer = otel.Tracer("ragchatd.ingest")

// embedBatchSize caps how many chunks go to the embedding API per request.
const embedBatchSize = 64

// Loader yields one document per PDF page under a directory.
type Loader interface {
	LoadDir(dir string) ([]document.Document, error)
}

// Embedder generates one vector per input text, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Result summarizes one ingestion run.
type Result struct {
	Documents int
	Chunks    int
	Duration  time.Duration
}

// Pipeline loads, chunks, embeds and upserts documents.
//
// Record IDs are derived from (source, page, ordinal), so re-running the
// pipeline over the same directory overwrites records instead of
// duplicating them.
type Pipeline struct {
	loader   Loader
	splitter *chunker.Splitter
	embedder Embedder
	store    vectorstore.Store
	logger   *zap.Logger
}

// NewPipeline creates an ingestion pipeline. All dependencies are required.
func NewPipeline(loader Loader, splitter *chunker.Splitter, embedder Embedder, store vectorstore.Store, logger *zap.Logger) (*Pipeline, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if splitter == nil {
		return nil, fmt.Errorf("splitter is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}, nil
}

// Run ingests every PDF under dir and returns counts of what was indexed.
// A directory that yields no chunks is not an error; the result reports
// zero chunks and the index is left untouched.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("dir", dir))

	start := time.Now()

	docs, err := p.loader.LoadDir(dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("loading documents from %s: %w", dir, err)
	}

	chunks := p.splitter.SplitAll(docs)
	p.logger.Info("documents chunked",
		zap.String("dir", dir),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
	)

	if len(chunks) == 0 {
		return &Result{Documents: len(docs), Duration: time.Since(start)}, nil
	}

	for batchStart := 0; batchStart < len(chunks); batchStart += embedBatchSize {
		end := batchStart + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := p.upsertBatch(ctx, chunks[batchStart:end]); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	result := &Result{
		Documents: len(docs),
		Chunks:    len(chunks),
		Duration:  time.Since(start),
	}
	recordRun(result)

	span.SetAttributes(attribute.Int("chunks", result.Chunks))
	span.SetStatus(codes.Ok, "success")
	p.logger.Info("ingestion complete",
		zap.Int("documents", result.Documents),
		zap.Int("chunks", result.Chunks),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// upsertBatch embeds one batch of chunks and writes it to the store.
func (p *Pipeline) upsertBatch(ctx context.Context, chunks []chunker.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch of %d chunks: %w", len(chunks), err)
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			ID:     RecordID(c.Source, c.Page, c.Ordinal),
			Vector: vectors[i],
			Text:   c.Text,
			Source: c.Source,
			Page:   c.Page,
		}
	}

	if err := p.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upserting batch of %d records: %w", len(records), err)
	}
	return nil
}

// RecordID derives a stable, UUID-formatted ID from a chunk's position.
// Qdrant only accepts UUIDs or integers as point IDs, and a deterministic
// ID is what makes re-ingestion idempotent across both backends.
func RecordID(source string, page, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", source, page, ordinal)))
	hexSum := hex.EncodeToString(sum[:16])
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		hexSum[0:8], hexSum[8:12], hexSum[12:16], hexSum[16:20], hexSum[20:32])
}
