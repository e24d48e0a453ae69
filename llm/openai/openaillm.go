// Package openai implements the llm.Backend interface on top of the OpenAI
// chat completions API. It also works with compatible APIs via BaseURL.
package openai

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/sqlagent/metricskey"
	"github.com/effective-security/sqlagent/store"
	"github.com/effective-security/xlog"
	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "openai")

const DefaultModel = "gpt-4o-mini"

// Config holds the provider settings passed through from the configuration.
type Config struct {
	Name        string
	Token       string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Backend implements llm.Backend using the OpenAI API.
type Backend struct {
	client  openaisdk.Client
	cfg     Config
	system  string
	history store.MessageStore
}

var _ llm.Backend = (*Backend)(nil)

// New returns a new OpenAI backend. The history store keeps the
// conversation messages between Generate calls.
func New(cfg Config, history store.MessageStore) (*Backend, error) {
	if cfg.Token == "" {
		return nil, errors.New("openai: token is not set")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Token),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if history == nil {
		history = store.NewMemoryStore()
	}
	return &Backend{
		client:  openaisdk.NewClient(opts...),
		cfg:     cfg,
		history: history,
	}, nil
}

// Name implements the llm.Backend interface.
func (b *Backend) Name() string {
	if b.cfg.Name != "" {
		return b.cfg.Name
	}
	return string(llm.ProviderOpenAI)
}

// Provider implements the llm.Backend interface.
func (b *Backend) Provider() llm.Provider {
	return llm.ProviderOpenAI
}

// SetSystemMessage implements the llm.Backend interface.
func (b *Backend) SetSystemMessage(prompt string) {
	b.system = prompt
}

// Generate implements the llm.Backend interface.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 8)
	if b.system != "" {
		messages = append(messages, openaisdk.SystemMessage(b.system))
	}
	for _, msg := range b.history.Messages(ctx) {
		switch msg.Role {
		case llm.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(b.cfg.Model),
		Messages: messages,
	}
	if b.cfg.Temperature > 0 {
		params.Temperature = openaisdk.Float(b.cfg.Temperature)
	}
	if b.cfg.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(b.cfg.MaxTokens))
	}

	started := time.Now()
	resp, err := b.client.Chat.Completions.New(ctx, params)
	metricskey.PerfLLMCall.MeasureSince(started, b.Name())
	if err != nil {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, b.Name())
		return "", errors.Wrap(err, "openai: completion failed")
	}
	if len(resp.Choices) == 0 {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, b.Name())
		return "", errors.New("openai: empty response")
	}
	metricskey.StatsLLMCallsSucceeded.IncrCounter(1, b.Name())

	text := resp.Choices[0].Message.Content

	// history is best effort: a conversation without a chat context is
	// still served, it just loses long-term memory
	if err := b.history.Add(ctx,
		llm.Message{Role: llm.RoleUser, Content: prompt},
		llm.Message{Role: llm.RoleAssistant, Content: text},
	); err != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "history_not_stored",
			"err", err.Error(),
		)
	}
	return text, nil
}
