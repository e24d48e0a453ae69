// Package llmfactory creates llm.Backend instances from configuration,
// caching them by provider name.
package llmfactory

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/sqlagent/llm/anthropic"
	"github.com/effective-security/sqlagent/llm/openai"
	"github.com/effective-security/sqlagent/store"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "llmfactory")

type Factory interface {
	DefaultBackend() (llm.Backend, error)
	BackendByProvider(provider llm.Provider) (llm.Backend, error)
	BackendByName(name string) (llm.Backend, error)
}

// Load returns a Factory from the config file at the given location.
// The history store is shared by all backends the factory creates.
func Load(location string, history store.MessageStore) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg, history), nil
}

type factory struct {
	cfg     *Config
	history store.MessageStore

	byProvider map[llm.Provider]llm.Backend
	byName     map[string]llm.Backend
	lock       sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config, history store.MessageStore) Factory {
	f := &factory{
		cfg:        cfg,
		history:    history,
		byProvider: make(map[llm.Provider]llm.Backend),
		byName:     make(map[string]llm.Backend),
	}
	return f
}

// NewBackend creates a backend for a single provider entry.
func NewBackend(cfg *ProviderConfig, history store.MessageStore) (llm.Backend, error) {
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		return openai.New(openai.Config{
			Name:        cfg.Name,
			Token:       cfg.Token,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.DefaultModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, history)
	case llm.ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			Name:        cfg.Name,
			Token:       cfg.Token,
			Model:       cfg.DefaultModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, history)
	default:
		return nil, errors.Newf("unsupported provider: %s", cfg.Provider)
	}
}

// DefaultBackend returns the backend of the first configured provider.
func (f *factory) DefaultBackend() (llm.Backend, error) {
	if len(f.cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	return f.BackendByName(f.cfg.Providers[0].Name)
}

func (f *factory) BackendByProvider(provider llm.Provider) (llm.Backend, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byProvider[provider]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Provider == provider {
			backend, err := NewBackend(cfg, f.history)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_backend",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byProvider[provider] = backend
			return backend, nil
		}
	}
	return nil, errors.Newf("provider not found: %s", provider)
}

func (f *factory) BackendByName(name string) (llm.Backend, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byName[name]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			backend, err := NewBackend(cfg, f.history)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_backend",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byName[name] = backend
			return backend, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
