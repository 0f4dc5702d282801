package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

var chromemTracer = otel.Tracer("ragchatd.vectorstore.chromem")

// ChromemStore implements Store using chromem-go, an embeddable vector
// database with no external service dependency. Data persists to gob files
// under the configured path.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	vectorSize int
	logger     *zap.Logger
}

// NewChromemStore creates a persistent embedded store.
func NewChromemStore(cfg config.VectorStoreConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}

	if err := os.MkdirAll(cfg.Chromem.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", cfg.Chromem.Path, err)
	}

	db, err := chromem.NewPersistentDB(cfg.Chromem.Path, cfg.Chromem.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	// All vectors are precomputed by the caller; chromem must never reach
	// for its default embedder.
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}

	logger.Info("chromem store initialized",
		zap.String("path", cfg.Chromem.Path),
		zap.String("collection", cfg.Collection),
		zap.Int("vector_size", cfg.VectorSize),
	)

	return &ChromemStore{
		db:         db,
		collection: collection,
		vectorSize: cfg.VectorSize,
		logger:     logger,
	}, nil
}

// rejectEmbedding is installed as the collection embedding func so any code
// path that would trigger server-side embedding fails loudly.
func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("vectors must be precomputed by the embedding client")
}

// Upsert writes records keyed by ID; existing IDs are overwritten.
func (s *ChromemStore) Upsert(ctx context.Context, records []Record) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("record_count", len(records)))

	if len(records) == 0 {
		return ErrEmptyRecords
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		if len(rec.Vector) != s.vectorSize {
			err := fmt.Errorf("%w: record %s has %d dimensions, index expects %d",
				ErrDimensionMismatch, rec.ID, len(rec.Vector), s.vectorSize)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Embedding: rec.Vector,
			Metadata: map[string]string{
				"source": rec.Source,
				"page":   strconv.Itoa(rec.Page),
			},
		}
	}

	// Concurrency of 1: embeddings are already present, nothing to parallelize.
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("upserted records", zap.Int("count", len(records)))
	return nil
}

// Search returns up to k matches ordered by descending similarity.
func (s *ChromemStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(vector) != s.vectorSize {
		err := fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(vector), s.vectorSize)
		span.RecordError(err)
		return nil, err
	}

	// chromem requires nResults <= document count.
	count := s.collection.Count()
	if count == 0 {
		return []Match{}, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		matches[i] = Match{
			ID:     r.ID,
			Text:   r.Content,
			Score:  r.Similarity,
			Source: r.Metadata["source"],
			Page:   page,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(matches)))
	span.SetStatus(codes.Ok, "success")
	return matches, nil
}

// Count returns the number of records in the collection.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close is a no-op: chromem persists on every write.
func (s *ChromemStore) Close() error {
	s.logger.Debug("chromem store closed")
	return nil
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
