package ai

import (
	"context"
	"errors"
)

// Message roles understood by every chat backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("ai: empty completion")

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Chatter is a single-turn text completion backend.
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
