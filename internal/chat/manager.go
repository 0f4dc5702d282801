package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchatd/internal/rag"
)

// Answerer produces a reply for a user query. Replies are always strings;
// pipeline failures surface as error-text replies, not errors.
type Answerer interface {
	Answer(ctx context.Context, query, mode string) string
}

// Manager ties session storage to the query engine.
type Manager struct {
	store  *Store
	engine Answerer
	logger *zap.Logger
}

// NewManager creates a chat manager.
func NewManager(store *Store, engine Answerer, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, engine: engine, logger: logger}, nil
}

// CreateOrContinue appends a user message to the session, generates the
// assistant reply, persists both turns, and returns the full history.
// The session is created on first use.
func (m *Manager) CreateOrContinue(ctx context.Context, sessionID, message string) ([]Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySession
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	history, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		m.logger.Info("creating new chat session", zap.String("session_id", sessionID))
	}

	history = append(history, Message{Role: RoleUser, Content: message})

	// Answer never returns an error; failures come back as reply text so
	// both turns are always recorded together.
	answer := m.engine.Answer(ctx, message, rag.ModeQA)
	history = append(history, Message{Role: RoleAssistant, Content: answer})

	if err := m.store.Put(sessionID, history); err != nil {
		return nil, err
	}

	m.logger.Info("chat turn recorded",
		zap.String("session_id", sessionID),
		zap.Int("history_len", len(history)),
	)
	return history, nil
}

// Get returns the history for a session; an unknown session yields an
// empty history.
func (m *Manager) Get(sessionID string) ([]Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrEmptySession
	}
	return m.store.Get(sessionID)
}

// Delete removes a session and reports whether it existed.
func (m *Manager) Delete(sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, ErrEmptySession
	}
	existed, err := m.store.Delete(sessionID)
	if err != nil {
		return false, err
	}
	if existed {
		m.logger.Info("deleted chat session", zap.String("session_id", sessionID))
	}
	return existed, nil
}
