package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration loaded from environment variables
// and an optional config file named by RESEARCH_CONFIG.
type Config struct {
	Port           string        `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
	GroqAPIKey     string        `mapstructure:"groq_api_key"`
	LLMBaseURL     string        `mapstructure:"llm_base_url"`
	LLMModel       string        `mapstructure:"llm_model"`
	LLMTemperature float64       `mapstructure:"llm_temperature"`
	SearchProvider string        `mapstructure:"search_provider"`
	TavilyAPIKey   string        `mapstructure:"tavily_api_key"`
	BraveAPIKey    string        `mapstructure:"brave_api_key"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	HistoryBackend string        `mapstructure:"history_backend"`
	HistoryPath    string        `mapstructure:"history_path"`
	PostgresDSN    string        `mapstructure:"postgres_dsn"`
	MongoURI       string        `mapstructure:"mongo_uri"`
	MongoDB        string        `mapstructure:"mongo_db"`
	SessionBackend string        `mapstructure:"session_backend"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	MinioEndpoint  string        `mapstructure:"minio_endpoint"`
	MinioAccessKey string        `mapstructure:"minio_access_key"`
	MinioSecretKey string        `mapstructure:"minio_secret_key"`
	MinioBucket    string        `mapstructure:"minio_bucket"`
	MinioUseSSL    bool          `mapstructure:"minio_use_ssl"`
}

var defaults = map[string]any{
	"port":            "8080",
	"allowed_origins": []string{"http://localhost:5173", "http://localhost:3000"},
	"log_level":       "info",
	"log_format":      "text",
	"llm_base_url":    "https://api.groq.com/openai/v1",
	"llm_model":       "llama-3.1-8b-instant",
	"llm_temperature": 0.1,
	"search_provider": "tavily",
	"fetch_timeout":   10 * time.Second,
	"history_backend": "sqlite",
	"history_path":    "chat_history.db",
	"mongo_db":        "research_agent",
	"session_backend": "memory",
	"session_ttl":     24 * time.Hour,
	"redis_addr":      "localhost:6379",
	"minio_bucket":    "research-history",
	"minio_use_ssl":   false,
}

// ErrMissingLLMKey is returned by Validate when no model API key is set.
var ErrMissingLLMKey = errors.New("missing GROQ_API_KEY")

// Load reads configuration. Every key can be set through the upper-cased
// environment variable of the same name (GROQ_API_KEY, HISTORY_BACKEND, ...).
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
		_ = v.BindEnv(k)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("config_file", "RESEARCH_CONFIG")
	for _, k := range []string{
		"groq_api_key", "tavily_api_key", "brave_api_key", "postgres_dsn", "mongo_uri",
		"redis_password", "minio_endpoint", "minio_access_key", "minio_secret_key",
	} {
		_ = v.BindEnv(k)
	}

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings that prevent any turn from running.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GroqAPIKey) == "" {
		return ErrMissingLLMKey
	}
	switch c.HistoryBackend {
	case "sqlite", "postgres", "mongo", "redis":
	default:
		return fmt.Errorf("unsupported HISTORY_BACKEND %q", c.HistoryBackend)
	}
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

// SearchAPIKey returns the key of the configured search provider. An empty
// key means search is disabled.
func (c *Config) SearchAPIKey() string {
	if c.SearchProvider == "brave" {
		return c.BraveAPIKey
	}
	return c.TavilyAPIKey
}
