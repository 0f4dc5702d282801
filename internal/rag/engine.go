package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/llm"
)

// Modes supported by the engine. Anything other than ModeSummary is
// treated as plain question answering.
const (
	ModeQA      = "qa"
	ModeSummary = "summary"
)

// emptyQueryReply is returned for blank input without touching any
// upstream service.
const emptyQueryReply = "Please enter a valid question."

// errorPrefix marks answers produced from a pipeline failure. The reply is
// still a normal assistant turn so the conversation history stays intact.
const errorPrefix = "ERROR: "

// PassageRetriever finds passages relevant to a query.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// Engine runs the full retrieve-assemble-complete pipeline for a query.
type Engine struct {
	retriever PassageRetriever
	llm       llm.Client
	topK      int
	logger    *zap.Logger
}

// NewEngine creates a query engine. topK is the default passage count.
func NewEngine(retriever PassageRetriever, client llm.Client, topK int, logger *zap.Logger) (*Engine, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be at least 1, got %d", topK)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{retriever: retriever, llm: client, topK: topK, logger: logger}, nil
}

// Answer runs the pipeline and always returns a user-facing string.
//
// Failures downstream (embedding, search, completion) come back as an
// "ERROR: "-prefixed reply rather than an error, so the caller can append
// the user and assistant turns to history unconditionally.
func (e *Engine) Answer(ctx context.Context, query, mode string) string {
	ctx, span := tracer.Start(ctx, "Engine.Answer")
	defer span.End()
	span.SetAttributes(attribute.String("mode", mode))

	start := time.Now()

	if strings.TrimSpace(query) == "" {
		recordQuery(mode, "empty", time.Since(start))
		return emptyQueryReply
	}

	effective := query
	if mode == ModeSummary {
		effective = summaryPreamble + query
	}

	passages, err := e.retriever.Retrieve(ctx, effective, e.topK)
	if err != nil {
		err = fmt.Errorf("retrieval failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return e.fail(mode, start, err)
	}

	prompt := AssemblePrompt(effective, passages)

	answer, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("completion failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return e.fail(mode, start, err)
	}

	recordQuery(mode, "success", time.Since(start))
	span.SetAttributes(attribute.Int("passages", len(passages)))
	span.SetStatus(codes.Ok, "success")
	e.logger.Info("query answered",
		zap.String("mode", mode),
		zap.Int("passages", len(passages)),
		zap.Duration("duration", time.Since(start)),
	)
	return answer
}

// fail logs and converts a pipeline error into a user-facing reply.
func (e *Engine) fail(mode string, start time.Time, err error) string {
	recordQuery(mode, "error", time.Since(start))
	e.logger.Error("query failed", zap.String("mode", mode), zap.Error(err))
	return errorPrefix + err.Error()
}
