// Package embeddings provides text embedding via an OpenAI-compatible API.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrDimensionMismatch indicates the model returned vectors whose
	// dimension does not match the configured index dimension. This is a
	// configuration error: the process must not keep serving with it.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Service embeds texts through the /v1/embeddings endpoint of an
// OpenAI-compatible server (TEI, llamafile, OpenAI itself).
//
// Vectors are validated against the configured dimension on every response,
// so a model/index mismatch fails fast instead of poisoning the index.
type Service struct {
	baseURL    string
	apiKey     config.Secret
	model      string
	vectorSize int
	client     *http.Client
}

// NewService creates an embedding service.
//
// vectorSize is the dimension the vector index was created with; every
// returned embedding must have exactly this length.
func NewService(cfg config.EmbeddingsConfig, vectorSize int) (*Service, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embeddings base URL is required")
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be positive, got %d", vectorSize)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		vectorSize: vectorSize,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Dimension returns the vector dimension this service is configured for.
func (s *Service) Dimension() int {
	return s.vectorSize
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedDocuments generates embeddings for multiple texts, one vector per
// input text, in input order.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	vectors, err := s.embed(ctx, texts)
	recordRequest("embed_documents", len(texts), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query string.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	vectors, err := s.embed(ctx, []string{text})
	recordRequest("embed_query", 1, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

// embed performs the HTTP call and validates vector dimensions.
func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: s.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey.IsSet() {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey.Value())
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingFailed, d.Index)
		}
		if len(d.Embedding) != s.vectorSize {
			return nil, fmt.Errorf("%w: model %q returned %d dimensions, index expects %d",
				ErrDimensionMismatch, s.model, len(d.Embedding), s.vectorSize)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// Probe embeds a fixed sentinel text to verify connectivity and dimension
// agreement at startup. Any error here should abort process start.
func (s *Service) Probe(ctx context.Context) error {
	if _, err := s.EmbedQuery(ctx, "startup dimension probe"); err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	return nil
}
