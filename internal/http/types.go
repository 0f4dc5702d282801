package http

import "github.com/fyrsmithlabs/ragchatd/internal/chat"

// ChatCreateRequest is the request body for POST /chat/create.
type ChatCreateRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the response body for chat endpoints that return history.
type ChatResponse struct {
	SessionID string         `json:"session_id"`
	History   []chat.Message `json:"history"`
}

// MessageResponse is a simple confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the response body for GET /.
type HealthResponse struct {
	Status string `json:"status"`
}
