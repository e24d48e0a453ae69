// Package config loads the application configuration, with environment
// variable expansion and validation.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/sqlagent/llmfactory"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// DefaultRequestTimeout bounds each call to the tool server.
const DefaultRequestTimeout = 30 * time.Second

// Config is the root application configuration.
type Config struct {
	// ToolServer is the JSON-RPC endpoint exposing the SQL tools.
	ToolServer ToolServer `json:"tool_server" yaml:"tool_server" validate:"required"`
	// Agent tunes the decision loop.
	Agent Agent `json:"agent" yaml:"agent"`
	// Redis enables the shared conversation store when set.
	Redis *Redis `json:"redis,omitempty" yaml:"redis,omitempty"`
	// LLM lists the model providers.
	LLM llmfactory.Config `json:"llm" yaml:"llm"`
}

// ToolServer describes the remote JSON-RPC tool server.
type ToolServer struct {
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"required,url"`
	// RequestTimeoutSeconds bounds each HTTP call, 30 when not set.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty" yaml:"request_timeout_seconds,omitempty"`
}

// RequestTimeout returns the configured timeout as a duration.
func (s ToolServer) RequestTimeout() time.Duration {
	if s.RequestTimeoutSeconds > 0 {
		return time.Duration(s.RequestTimeoutSeconds) * time.Second
	}
	return DefaultRequestTimeout
}

// Agent tunes the decision loop.
type Agent struct {
	// MaxIterations bounds the loop, 10 when not set.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" validate:"gte=0,lte=100"`
}

// Redis describes the optional shared conversation store.
type Redis struct {
	Addr     string `json:"addr" yaml:"addr" validate:"required"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	// Prefix namespaces the keys, eg "sqlagent".
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Load reads the configuration from file, expands ${ENV} references and
// validates it.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}

	err = validator.New().Struct(cfg)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid configuration: %s", file)
	}
	return cfg, nil
}
