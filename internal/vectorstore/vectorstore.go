// Package vectorstore defines the interface for vector index operations.
//
// Stores never embed: records and queries arrive with precomputed vectors,
// so the embedding model stays a separate concern and stores can be tested
// with fixed vectors.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyRecords indicates empty or nil records.
	ErrEmptyRecords = errors.New("empty or nil records")

	// ErrDimensionMismatch indicates a vector whose dimension does not match
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Record is one indexed chunk: a deterministic ID, its embedding vector,
// the chunk text and its source metadata. Upserting the same ID twice
// overwrites in place.
type Record struct {
	ID     string
	Vector []float32
	Text   string
	Source string
	Page   int
}

// Match is one similarity search result. Score is higher for closer
// vectors.
type Match struct {
	ID     string
	Text   string
	Score  float32
	Source string
	Page   int
}

// Store is the capability interface for the vector index.
//
// Implementations wrap external vector databases; none of them implement
// indexing themselves.
type Store interface {
	// Upsert writes records keyed by Record.ID. Writing an existing ID
	// overwrites the stored record, so re-ingestion is idempotent.
	Upsert(ctx context.Context, records []Record) error

	// Search returns up to k matches ordered by descending score. An empty
	// index yields an empty result, not an error.
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Count returns the number of records in the index.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying connection or file handles.
	Close() error
}

// New constructs the Store selected by cfg.Provider.
//
// "chromem" (default) is the embedded persistent store; "qdrant" connects
// to an external Qdrant instance over gRPC.
func New(cfg config.VectorStoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "chromem":
		return NewChromemStore(cfg, logger)
	case "qdrant":
		return NewQdrantStore(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
