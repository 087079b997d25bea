package model

import (
	"fmt"
	"sort"
)

// providerDefault captures a known provider's default base URL, default
// model, and whether an API key is required.
type providerDefault struct {
	BaseURL        string
	DefaultModel   string
	APIKeyRequired bool
}

// knownProviders mirrors the provider table of the original Python client:
// local runtimes (lmstudio, ollama) need no key, hosted providers do.
var knownProviders = map[string]providerDefault{
	"lmstudio": {
		BaseURL:      "http://localhost:1234/v1",
		DefaultModel: "local-model",
	},
	"ollama": {
		BaseURL:      "http://localhost:11434/v1",
		DefaultModel: "llama3.1",
	},
	"openrouter": {
		BaseURL:        "https://openrouter.ai/api/v1",
		DefaultModel:   "meta-llama/llama-3.1-8b-instruct",
		APIKeyRequired: true,
	},
	"openai": {
		BaseURL:        "https://api.openai.com/v1",
		DefaultModel:   "gpt-4o-mini",
		APIKeyRequired: true,
	},
	"anthropic": {
		BaseURL:        "https://api.anthropic.com/v1",
		DefaultModel:   "claude-3-haiku-20240307",
		APIKeyRequired: true,
	},
	"pollinations": {
		BaseURL:      "https://text.pollinations.ai",
		DefaultModel: "openai",
	},
}

// KnownProviderNames returns the registered provider names in sorted order,
// for surfaces (like the optional HTTP API) that list configurable
// providers without exposing the underlying defaults table.
func KnownProviderNames() []string {
	names := make([]string, 0, len(knownProviders))
	for name := range knownProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrUnknownProvider is returned by ResolveConfig for an unregistered
// provider name.
type ErrUnknownProvider struct{ Provider string }

func (e *ErrUnknownProvider) Error() string { return fmt.Sprintf("unknown model provider: %s", e.Provider) }

// ErrAPIKeyRequired is returned by ResolveConfig when a provider requires
// an API key and none was supplied.
type ErrAPIKeyRequired struct{ Provider string }

func (e *ErrAPIKeyRequired) Error() string { return fmt.Sprintf("API key required for provider: %s", e.Provider) }

// ResolveConfig fills in BaseURL and Model from the known-provider table
// when the caller left them empty, and validates that a required API key
// is present. It does not mutate cfg.Provider validation for unregistered
// providers that already carry an explicit BaseURL — a caller pointing at
// a self-hosted OpenAI-compatible endpoint under a custom provider name is
// allowed as long as BaseURL and Model are both supplied.
func ResolveConfig(cfg Config) (Config, error) {
	known, ok := knownProviders[cfg.Provider]
	if !ok {
		if cfg.BaseURL == "" || cfg.Model == "" {
			return cfg, &ErrUnknownProvider{Provider: cfg.Provider}
		}
		return cfg, nil
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = known.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = known.DefaultModel
	}
	if known.APIKeyRequired && cfg.APIKey == "" {
		return cfg, &ErrAPIKeyRequired{Provider: cfg.Provider}
	}
	return cfg, nil
}
