package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single role/content pair in an ordered chat history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var (
	// ErrUnavailable means the backend process could not be reached.
	ErrUnavailable = errors.New("llm: backend unavailable")
	// ErrModelPull means the configured model was absent and pulling it failed.
	ErrModelPull = errors.New("llm: model pull failed")
	// ErrTimeout means the bounded wait for an inference call was exceeded.
	ErrTimeout = errors.New("llm: inference timed out")
	// ErrProtocol means the backend answered with an unexpected shape.
	ErrProtocol = errors.New("llm: malformed backend response")
)

type Provider interface {
	// EnsureModel verifies the backend is reachable and the configured model
	// is present, pulling it if necessary. Blocks until the pull completes.
	EnsureModel(ctx context.Context) error

	// Chat sends the full ordered history and returns the assistant reply.
	// It never mutates the history; callers append the reply themselves.
	Chat(ctx context.Context, history []Turn) (string, error)
}
