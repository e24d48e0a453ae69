package config_test

import (
	"testing"
	"time"

	"github.com/effective-security/sqlagent/config"
	"github.com/effective-security/sqlagent/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := config.Load("testdata/sqlagent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8085/rpc", cfg.ToolServer.Endpoint)
	assert.Equal(t, 15*time.Second, cfg.ToolServer.RequestTimeout())
	assert.Equal(t, 10, cfg.Agent.MaxIterations)

	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "sqlagent", cfg.Redis.Prefix)

	require.Len(t, cfg.LLM.Providers, 2)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Providers[0].Provider)
	assert.Equal(t, "sk-test", cfg.LLM.Providers[0].Token)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Providers[1].Provider)
}

func Test_Load_Invalid(t *testing.T) {
	_, err := config.Load("testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = config.Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func Test_RequestTimeout_Default(t *testing.T) {
	var s config.ToolServer
	assert.Equal(t, config.DefaultRequestTimeout, s.RequestTimeout())
}
