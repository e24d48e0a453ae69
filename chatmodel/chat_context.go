package chatmodel

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

var (
	// ErrInvalidChatContext is returned when the context does not carry a chat ID.
	ErrInvalidChatContext = errors.New("invalid chat context")
)

// ChatContext identifies one conversation. It is carried in the
// context.Context and used by stores to key the message history.
type ChatContext interface {
	GetChatID() string
	// AppData returns immutable app data
	AppData() any
}

type chatContext struct {
	chatID  string
	appData any
}

func (c *chatContext) GetChatID() string {
	return c.chatID
}

func (c *chatContext) AppData() any {
	return c.appData
}

func NewChatContext(chatID string, appData any) ChatContext {
	return &chatContext{
		chatID:  values.StringsCoalesce(chatID, NewChatID()),
		appData: appData,
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithChatContext returns a new context with ChatContext value
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, keyContext, chatCtx)
}

// GetChatContext retrieves the ChatContext from the context
func GetChatContext(ctx context.Context) ChatContext {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v
	}
	return nil
}

// GetChatID retrieves the chat ID from the provided context.
// If the context does not contain a ChatContext, ErrInvalidChatContext is returned.
func GetChatID(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.GetChatID(), nil
	}
	return "", errors.WithStack(ErrInvalidChatContext)
}

// NewChatID generates a new chat ID using the flake ID generator.
func NewChatID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
