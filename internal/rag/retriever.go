// Package rag implements retrieval-augmented question answering: retrieve
// relevant passages, assemble a grounded prompt, and generate an answer.
package rag

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/vectorstore"
)

var tracer = otel.Tracer("ragchatd.rag")

// Passage is one retrieved chunk with its citation metadata.
type Passage struct {
	Text   string
	Source string
	Page   int
	Score  float32
}

// QueryEmbedder embeds a single query string.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever finds the passages most similar to a query.
type Retriever struct {
	embedder QueryEmbedder
	store    vectorstore.Store
	logger   *zap.Logger
}

// NewRetriever creates a retriever over the given embedder and store.
func NewRetriever(embedder QueryEmbedder, store vectorstore.Store, logger *zap.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{embedder: embedder, store: store, logger: logger}, nil
}

// Retrieve returns up to k passages ordered by descending similarity.
// An empty index yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	ctx, span := tracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := r.store.Search(ctx, vector, k)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching index: %w", err)
	}

	passages := make([]Passage, len(matches))
	for i, m := range matches {
		passages[i] = Passage{
			Text:   m.Text,
			Source: m.Source,
			Page:   m.Page,
			Score:  m.Score,
		}
	}

	span.SetAttributes(attribute.Int("passages", len(passages)))
	span.SetStatus(codes.Ok, "success")
	r.logger.Debug("retrieved passages", zap.Int("count", len(passages)))
	return passages, nil
}
