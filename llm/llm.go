// Package llm defines the text-generation backend interface consumed by the
// agent loop. Provider implementations live in the subpackages.
package llm

import "context"

// Backend is a text-generation backend. The system message is set once
// before the loop starts; Generate is called once per iteration with the
// prompt built from the conversation state. Implementations keep the
// message history of the conversation, so the loop only needs to carry the
// immediately preceding tool result.
type Backend interface {
	// Name returns the configured backend name.
	Name() string
	// Provider returns the provider type.
	Provider() Provider
	// SetSystemMessage establishes the instruction contract for the run.
	SetSystemMessage(prompt string)
	// Generate produces raw model text for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider is the type of text-generation provider.
type Provider string

const (
	// ProviderOpenAI is the type of provider.
	ProviderOpenAI Provider = "OPENAI"
	// ProviderAnthropic is the type of provider.
	ProviderAnthropic Provider = "ANTHROPIC"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
