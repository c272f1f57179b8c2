// SPDX-License-Identifier: Apache-2.0

// Package config loads process configuration once at startup. Core packages
// receive the values through their constructors and never read the
// environment themselves.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LLM providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderNone       = "none"
)

// Config holds all configuration for torah-mcp.
type Config struct {
	Sefaria SefariaConfig `mapstructure:"sefaria"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Log     LogConfig     `mapstructure:"log"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// SefariaConfig locates the retrieval MCP server.
type SefariaConfig struct {
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxChars    int           `mapstructure:"max_chars"`
	SearchSize  int           `mapstructure:"search_size"`
	Concurrency int           `mapstructure:"concurrency"`
}

// LLMConfig selects and configures the text-generation provider.
type LLMConfig struct {
	Provider   string        `mapstructure:"provider"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	Referer    string        `mapstructure:"referer"`
	Title      string        `mapstructure:"title"`
	GeminiKey  string        `mapstructure:"gemini_api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxSources int           `mapstructure:"max_sources"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Verbose bool   `mapstructure:"verbose"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

// Load reads configuration from path (optional; YAML or JSON by extension),
// TORAH_MCP_* environment variables and the legacy variable names.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TORAH_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// legacyEnv maps config keys to the environment variables the earlier
// tooling used. The prefixed name is tried first.
var legacyEnv = map[string][]string{
	"sefaria.url":        {"TORAH_MCP_SEFARIA_URL", "SEFARIA_MCP_URL"},
	"llm.api_key":        {"TORAH_MCP_LLM_API_KEY", "OPENROUTER_API_KEY"},
	"llm.model":          {"TORAH_MCP_LLM_MODEL", "OPENROUTER_MODEL"},
	"llm.base_url":       {"TORAH_MCP_LLM_BASE_URL", "OPENROUTER_BASE_URL"},
	"llm.referer":        {"TORAH_MCP_LLM_REFERER", "OPENROUTER_REFERER", "HTTP_REFERER"},
	"llm.title":          {"TORAH_MCP_LLM_TITLE", "OPENROUTER_TITLE", "X_TITLE"},
	"llm.gemini_api_key": {"TORAH_MCP_LLM_GEMINI_API_KEY", "GEMINI_API_KEY"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sefaria.url", "http://localhost:3000/mcp")
	v.SetDefault("sefaria.timeout", 60*time.Second)
	v.SetDefault("sefaria.max_chars", 800)
	v.SetDefault("sefaria.search_size", 5)
	v.SetDefault("sefaria.concurrency", 4)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "x-ai/grok-4-fast")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.referer", "https://factory.ai")
	v.SetDefault("llm.title", "Torah MCP Auto Explain")
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.max_sources", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("http.address", ":8080")
}

// normalize picks a provider when none was set: OpenRouter when its key is
// present, then Gemini, else none.
func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		switch {
		case c.LLM.APIKey != "":
			c.LLM.Provider = ProviderOpenRouter
		case c.LLM.GeminiKey != "":
			c.LLM.Provider = ProviderGemini
		default:
			c.LLM.Provider = ProviderNone
		}
	}
	if c.LLM.MaxSources <= 0 {
		c.LLM.MaxSources = 3
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Sefaria.URL) == "" {
		errs = append(errs, errors.New("sefaria.url is required"))
	}
	if c.Sefaria.MaxChars <= 0 {
		errs = append(errs, errors.New("sefaria.max_chars must be greater than zero"))
	}
	switch c.LLM.Provider {
	case ProviderOpenRouter:
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key is required for the openrouter provider"))
		}
	case ProviderGemini:
		if c.LLM.GeminiKey == "" && c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.gemini_api_key is required for the gemini provider"))
		}
	case ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of openrouter, gemini, none", c.LLM.Provider))
	}
	return errors.Join(errs...)
}
