package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Settings.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderFake       = "fake"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Settings selects and configures one provider.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	// Timeout bounds one Complete call, retries included. Zero disables it.
	Timeout time.Duration

	// Attempts is the total number of tries for a transient failure.
	Attempts int
}

var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderOpenRouter: "google/gemini-2.0-flash-exp",
}

// modelAliases maps short names to vendor model IDs. Anything else is sent
// as written.
var modelAliases = map[string]string{
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-sonnet": "claude-sonnet-4-20250514",
	"gemini-flash":  "gemini-2.0-flash",
	"gemini-pro":    "gemini-2.0-pro",
}

func resolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

// vendorKeys lists the vendors' own API key variables in discovery order.
var vendorKeys = []struct {
	provider string
	env      string
}{
	{ProviderGemini, "GEMINI_API_KEY"},
	{ProviderOpenAI, "OPENAI_API_KEY"},
	{ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

// Resolve fills what s leaves open. With no provider it picks the first
// vendor whose API key is set in the environment; with a provider but no key
// it reads that vendor's variable. It returns ErrNotConfigured when nothing
// is selected and nothing is found.
func (s Settings) Resolve() (Settings, error) {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		for _, vk := range vendorKeys {
			if k := os.Getenv(vk.env); k != "" {
				s.Provider, s.APIKey = vk.provider, k
				break
			}
		}
		if s.Provider == "" {
			return Settings{}, ErrNotConfigured
		}
	}
	if s.APIKey == "" {
		for _, vk := range vendorKeys {
			if vk.provider == s.Provider {
				s.APIKey = os.Getenv(vk.env)
			}
		}
	}
	if s.Model == "" {
		s.Model = defaultModels[s.Provider]
	}
	if s.Provider == ProviderOpenRouter && s.BaseURL == "" {
		s.BaseURL = defaultOpenRouterBaseURL
	}
	if s.Attempts < 1 {
		s.Attempts = 1
	}
	return s, s.Validate()
}

// Validate checks that the selected provider is known and has a key.
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderFake:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("unknown LLM provider %q", s.Provider)
	}
	if s.APIKey == "" {
		return fmt.Errorf("the %s provider needs an API key (llm.api_key or %s_API_KEY)", s.Provider, strings.ToUpper(s.Provider))
	}
	return nil
}
