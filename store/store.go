// Package store keeps the conversation message history for the
// text-generation backends, keyed by the chat ID carried in the context.
package store

import (
	"context"

	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "store")

// MessageStore holds the message history of one or more conversations.
type MessageStore interface {
	// Messages returns the history of the chat identified by the context,
	// or nil when the context carries no chat.
	Messages(ctx context.Context) []llm.Message
	// Add appends messages to the history of the chat identified by the context.
	Add(ctx context.Context, msgs ...llm.Message) error
	// Reset removes the history of the chat identified by the context.
	Reset(ctx context.Context) error
}
