package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/ragchatd/internal/chat"
	"github.com/fyrsmithlabs/ragchatd/internal/config"
)

type stubManager struct {
	sessions map[string][]chat.Message
}

func newStubManager() *stubManager {
	return &stubManager{sessions: make(map[string][]chat.Message)}
}

func (m *stubManager) CreateOrContinue(ctx context.Context, sessionID, message string) ([]chat.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, chat.ErrEmptySession
	}
	if strings.TrimSpace(message) == "" {
		return nil, chat.ErrEmptyMessage
	}
	history := append(m.sessions[sessionID],
		chat.Message{Role: chat.RoleUser, Content: message},
		chat.Message{Role: chat.RoleAssistant, Content: "reply to " + message},
	)
	m.sessions[sessionID] = history
	return history, nil
}

func (m *stubManager) Get(sessionID string) ([]chat.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, chat.ErrEmptySession
	}
	return m.sessions[sessionID], nil
}

func (m *stubManager) Delete(sessionID string) (bool, error) {
	if _, ok := m.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(m.sessions, sessionID)
	return true, nil
}

func newTestServer(t *testing.T) (*Server, *stubManager) {
	t.Helper()
	manager := newStubManager()
	srv, err := NewServer(manager, zaptest.NewLogger(t), config.ServerConfig{Host: "localhost", Port: 8000})
	require.NoError(t, err)
	return srv, manager
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "API running", resp.Status)
}

func TestCreateChat(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/chat/create", `{"session_id":"s1","message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.Len(t, resp.History, 2)
	assert.Equal(t, chat.RoleUser, resp.History[0].Role)
	assert.Equal(t, "reply to hello", resp.History[1].Content)
}

func TestCreateChatValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/chat/create", `{"session_id":"s1","message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/chat/create", `{"session_id":"","message":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/chat/create", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChat(t *testing.T) {
	srv, manager := newTestServer(t)
	manager.sessions["s1"] = []chat.Message{{Role: chat.RoleUser, Content: "hi"}}

	rec := doRequest(srv, http.MethodGet, "/chat/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.History, 1)
	assert.Equal(t, "hi", resp.History[0].Content)
}

func TestGetChatNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/chat/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteChat(t *testing.T) {
	srv, manager := newTestServer(t)
	manager.sessions["s1"] = []chat.Message{{Role: chat.RoleUser, Content: "hi"}}

	rec := doRequest(srv, http.MethodDelete, "/chat/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodDelete, "/chat/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "second delete must 404")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
