package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLMModel)
	assert.InDelta(t, 0.1, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "sqlite", cfg.HistoryBackend)
	assert.Equal(t, "chat_history.db", cfg.HistoryPath)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingLLMKey)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("TAVILY_API_KEY", "tk")
	t.Setenv("HISTORY_BACKEND", "mongo")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "http://a,http://b")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gk", cfg.GroqAPIKey)
	assert.Equal(t, "tk", cfg.SearchAPIKey())
	assert.Equal(t, "mongo", cfg.HistoryBackend)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groq_api_key: from-file\nsearch_provider: brave\nbrave_api_key: bk\n"), 0o600))
	t.Setenv("RESEARCH_CONFIG", path)
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.GroqAPIKey)
	assert.Equal(t, "bk", cfg.SearchAPIKey())
}

func TestValidateBackends(t *testing.T) {
	cfg := &Config{GroqAPIKey: "k", HistoryBackend: "shelve", SessionBackend: "memory"}
	assert.Error(t, cfg.Validate())
	cfg.HistoryBackend = "postgres"
	cfg.SessionBackend = "redis"
	assert.NoError(t, cfg.Validate())
}
