// Package anthropic implements the llm.Backend interface on top of the
// Anthropic messages API.
package anthropic

import (
	"context"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/sqlagent/metricskey"
	"github.com/effective-security/sqlagent/store"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "anthropic")

const (
	DefaultModel = "claude-sonnet-4-5"

	// the messages API requires an explicit output budget
	defaultMaxTokens = 4096
)

// Config holds the provider settings passed through from the configuration.
type Config struct {
	Name        string
	Token       string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Backend implements llm.Backend using the Anthropic API.
type Backend struct {
	client  anthropicsdk.Client
	cfg     Config
	system  string
	history store.MessageStore
}

var _ llm.Backend = (*Backend)(nil)

// New returns a new Anthropic backend.
func New(cfg Config, history store.MessageStore) (*Backend, error) {
	if cfg.Token == "" {
		return nil, errors.New("anthropic: token is not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if history == nil {
		history = store.NewMemoryStore()
	}
	return &Backend{
		client:  anthropicsdk.NewClient(option.WithAPIKey(cfg.Token)),
		cfg:     cfg,
		history: history,
	}, nil
}

// Name implements the llm.Backend interface.
func (b *Backend) Name() string {
	if b.cfg.Name != "" {
		return b.cfg.Name
	}
	return string(llm.ProviderAnthropic)
}

// Provider implements the llm.Backend interface.
func (b *Backend) Provider() llm.Provider {
	return llm.ProviderAnthropic
}

// SetSystemMessage implements the llm.Backend interface.
func (b *Backend) SetSystemMessage(prompt string) {
	b.system = prompt
}

// Generate implements the llm.Backend interface.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	var messages []anthropicsdk.MessageParam
	for _, msg := range b.history.Messages(ctx) {
		switch msg.Role {
		case llm.RoleAssistant:
			messages = append(messages, anthropicsdk.NewAssistantMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		default:
			messages = append(messages, anthropicsdk.NewUserMessage(
				anthropicsdk.NewTextBlock(msg.Content),
			))
		}
	}
	messages = append(messages, anthropicsdk.NewUserMessage(
		anthropicsdk.NewTextBlock(prompt),
	))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(b.cfg.Model),
		Messages:  messages,
		MaxTokens: int64(b.cfg.MaxTokens),
	}
	if b.system != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: b.system},
		}
	}
	if b.cfg.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(b.cfg.Temperature)
	}

	started := time.Now()
	resp, err := b.client.Messages.New(ctx, params)
	metricskey.PerfLLMCall.MeasureSince(started, b.Name())
	if err != nil {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, b.Name())
		return "", errors.Wrap(err, "anthropic: message failed")
	}
	metricskey.StatsLLMCallsSucceeded.IncrCounter(1, b.Name())

	var text string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			text += tb.Text
		}
	}

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
