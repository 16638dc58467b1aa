package config

import (
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for a slidesmith run. It is loaded once
// at startup and passed by value into the components that need it.
type Config struct {
	LLM         LLMConfig    `mapstructure:"llm"`
	Search      SearchConfig `mapstructure:"search"`
	Deck        DeckConfig   `mapstructure:"deck"`
	Expand      ExpandConfig `mapstructure:"expand"`
	Log         LogConfig    `mapstructure:"log"`
	Sentry      SentryConfig `mapstructure:"sentry"`
	Environment string       `mapstructure:"environment"`
}

type LLMConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds"`
}

type SearchConfig struct {
	APIKey          string `mapstructure:"api_key"`
	MaxResults      int    `mapstructure:"max_results"`
	ContextSnippets int    `mapstructure:"context_snippets"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-request search timeout as a duration.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Enabled reports whether a search API key is configured.
func (c SearchConfig) Enabled() bool {
	return c.APIKey != ""
}

type DeckConfig struct {
	DefaultSlides     int    `mapstructure:"default_slides"`
	MaxBullets        int    `mapstructure:"max_bullets"`
	MaxCharsPerBullet int    `mapstructure:"max_chars_per_bullet"`
	Theme             string `mapstructure:"theme"`
}

type ExpandConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

const (
	defaultBaseURL           = "https://openrouter.ai/api/v1"
	defaultModel             = "google/gemini-2.5-flash"
	defaultTemperature       = 0.7
	defaultMaxTokens         = 2000
	defaultMaxRetries        = 3
	defaultRetryDelaySeconds = 2
	defaultSearchResults     = 10
	defaultContextSnippets   = 5
	defaultSearchTimeout     = 15
	defaultSlides            = 10
	defaultMaxBullets        = 6
	defaultMaxCharsPerBullet = 120
	defaultTheme             = "modern"
	defaultConcurrency       = 4
	defaultLogLevel          = "info"
	defaultEnvironment       = "development"
)

// Load reads configuration from an optional config.yaml and the environment,
// applying defaults where nothing is set. Callers are expected to have loaded
// a .env file beforehand if one exists.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile("config.yaml")
	v.AutomaticEnv()

	mappings := []struct {
		key, env string
	}{
		{"llm.api_key", "LLM_API_KEY"},
		{"llm.base_url", "LLM_BASE_URL"},
		{"llm.model", "LLM_MODEL"},
		{"llm.temperature", "LLM_TEMPERATURE"},
		{"llm.max_tokens", "LLM_MAX_TOKENS"},
		{"llm.max_retries", "LLM_MAX_RETRIES"},
		{"llm.retry_delay_seconds", "LLM_RETRY_DELAY_SECONDS"},

		{"search.api_key", "SERPAPI_KEY"},
		{"search.max_results", "SEARCH_MAX_RESULTS"},
		{"search.context_snippets", "SEARCH_CONTEXT_SNIPPETS"},
		{"search.timeout_seconds", "SEARCH_TIMEOUT_SECONDS"},

		{"deck.default_slides", "DECK_DEFAULT_SLIDES"},
		{"deck.max_bullets", "DECK_MAX_BULLETS"},
		{"deck.max_chars_per_bullet", "DECK_MAX_CHARS_PER_BULLET"},
		{"deck.theme", "DECK_THEME"},

		{"expand.concurrency", "EXPAND_CONCURRENCY"},
		{"log.level", "LOG_LEVEL"},
		{"sentry.dsn", "SENTRY_DSN"},
		{"environment", "ENV"},
	}

	for _, m := range mappings {
		if err := v.BindEnv(m.key, m.env); err != nil {
			return nil, eris.Wrapf(err, "binding %s", m.env)
		}
	}

	v.SetDefault("llm.base_url", defaultBaseURL)
	v.SetDefault("llm.model", defaultModel)
	v.SetDefault("llm.temperature", defaultTemperature)
	v.SetDefault("llm.max_tokens", defaultMaxTokens)
	v.SetDefault("llm.max_retries", defaultMaxRetries)
	v.SetDefault("llm.retry_delay_seconds", defaultRetryDelaySeconds)
	v.SetDefault("search.max_results", defaultSearchResults)
	v.SetDefault("search.context_snippets", defaultContextSnippets)
	v.SetDefault("search.timeout_seconds", defaultSearchTimeout)
	v.SetDefault("deck.default_slides", defaultSlides)
	v.SetDefault("deck.max_bullets", defaultMaxBullets)
	v.SetDefault("deck.max_chars_per_bullet", defaultMaxCharsPerBullet)
	v.SetDefault("deck.theme", defaultTheme)
	v.SetDefault("expand.concurrency", defaultConcurrency)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("environment", defaultEnvironment)

	if err := v.ReadInConfig(); err != nil {
		// A missing config.yaml is fine, environment variables cover
		// everything; a present but unreadable one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, eris.Wrap(err, "reading config.yaml")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "unmarshalling configuration")
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return eris.Errorf("llm.temperature must be within [0, 2], got %g", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return eris.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxRetries < 0 {
		return eris.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	if c.Deck.DefaultSlides < 1 || c.Deck.DefaultSlides > 50 {
		return eris.Errorf("deck.default_slides must be within [1, 50], got %d", c.Deck.DefaultSlides)
	}
	if c.Deck.MaxBullets <= 0 {
		return eris.Errorf("deck.max_bullets must be positive, got %d", c.Deck.MaxBullets)
	}
	if c.Deck.MaxCharsPerBullet <= 0 {
		return eris.Errorf("deck.max_chars_per_bullet must be positive, got %d", c.Deck.MaxCharsPerBullet)
	}
	if c.Search.MaxResults <= 0 {
		return eris.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.ContextSnippets <= 0 {
		return eris.Errorf("search.context_snippets must be positive, got %d", c.Search.ContextSnippets)
	}
	if c.Expand.Concurrency <= 0 {
		return eris.Errorf("expand.concurrency must be positive, got %d", c.Expand.Concurrency)
	}
	return nil
}
