package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/mitc/internal/providers"
)

// ErrMissingAPIKey is returned by Validate when the default provider has no
// usable API key.
var ErrMissingAPIKey = errors.New("missing API key for default LLM provider")

// Config holds mitc configuration.
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Extraction   RetryCfg                  `mapstructure:"extraction" yaml:"extraction"`
	Comparison   RetryCfg                  `mapstructure:"comparison" yaml:"comparison"`
	Fields       FieldsCfg                 `mapstructure:"fields" yaml:"fields"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        int      `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"` // "*" allows any origin
}

// Addr returns host:port.
func (s ServerCfg) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`         // "gemini", "openai", "mock"
	Model     string  `mapstructure:"model" yaml:"model"`       // Model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`   // API key (supports ${ENV_VAR} syntax)
	BaseURL   string  `mapstructure:"base_url" yaml:"base_url"` // Optional endpoint override
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg selects the provider and sampling settings used for model calls.
type DefaultsCfg struct {
	LLMProvider    string   `mapstructure:"llm_provider" yaml:"llm_provider"`
	Temperature    *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// RetryCfg configures the retry policy of one capability.
type RetryCfg struct {
	Attempts    int `mapstructure:"attempts" yaml:"attempts"`
	BaseDelayMs int `mapstructure:"base_delay_ms" yaml:"base_delay_ms"`
	MaxJitterMs int `mapstructure:"max_jitter_ms" yaml:"max_jitter_ms"`
}

// Policy converts the settings to a retry policy.
func (r RetryCfg) Policy() providers.RetryPolicy {
	return providers.RetryPolicy{
		Attempts:  r.Attempts,
		BaseDelay: time.Duration(r.BaseDelayMs) * time.Millisecond,
		MaxJitter: time.Duration(r.MaxJitterMs) * time.Millisecond,
	}
}

// FieldsCfg points at an optional JSON field catalog.
type FieldsCfg struct {
	File string `mapstructure:"file" yaml:"file"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		LLMProviders: map[string]LLMProviderCfg{
			"gemini": {
				Type:    providers.GeminiName,
				Model:   providers.GeminiDefaultModel,
				APIKey:  "${GEMINI_API_KEY}",
				Enabled: true,
			},
			"openai": {
				Type:    providers.OpenAIName,
				Model:   providers.OpenAIDefaultModel,
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:    "gemini",
			TimeoutSeconds: 300,
		},
		Extraction: RetryCfg{
			Attempts:    3,
			BaseDelayMs: 1000,
			MaxJitterMs: 1000,
		},
		Comparison: RetryCfg{
			Attempts: 1,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// Timeout returns the per-call timeout, zero when unset.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Defaults.TimeoutSeconds) * time.Second
}

// Validate checks that the default provider exists, is enabled, and has a
// resolved API key. The mock provider needs no key.
func (c *Config) Validate() error {
	name := c.Defaults.LLMProvider
	p, ok := c.LLMProviders[name]
	if !ok {
		return fmt.Errorf("default LLM provider %q is not configured", name)
	}
	if !p.Enabled {
		return fmt.Errorf("default LLM provider %q is disabled", name)
	}
	if p.Type == providers.MockClientName {
		return nil
	}
	if ResolveEnvVars(p.APIKey) == "" {
		return fmt.Errorf("%w: %s (set %s)", ErrMissingAPIKey, name, envHint(p))
	}
	return nil
}

func envHint(p LLMProviderCfg) string {
	if m := envRef.FindStringSubmatch(p.APIKey); m != nil {
		return m[1]
	}
	return "api_key"
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Default:      c.Defaults.LLMProvider,
		LLMProviders: make(map[string]providers.LLMProviderConfig),
	}

	for name, llm := range c.LLMProviders {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Type:      llm.Type,
			Model:     llm.Model,
			APIKey:    ResolveEnvVars(llm.APIKey),
			BaseURL:   llm.BaseURL,
			RateLimit: llm.RateLimit,
			Enabled:   llm.Enabled,
		}
	}

	return cfg
}
