// Package chat persists per-session conversation history and runs new
// messages through the query engine.
package chat

import "errors"

// Message roles as stored in history and returned over the API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrEmptyMessage indicates a blank user message.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrEmptySession indicates a blank session ID.
	ErrEmptySession = errors.New("session id cannot be empty")
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
