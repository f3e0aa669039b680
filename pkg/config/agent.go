package config

import (
	"fmt"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderScripted  = "scripted"
)

const defaultSystemPrompt = "তুমি একজন ধৈর্যশীল বাংলা শিক্ষক। শিক্ষার্থীর প্রশ্নের উত্তর সহজ বাংলায় দাও এবং শিক্ষার্থী সম্পর্কে যা জানো তা ব্যবহার করে উত্তর ব্যক্তিগত করো।"

type AgentConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	OpenAIAPIKey    string        `yaml:"openai_api_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	Timeout         time.Duration `yaml:"timeout"`
	Temperature     float64       `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	HistoryLimit    int           `yaml:"history_limit"`
	RateLimit       float64       `yaml:"rate_limit"` // llamadas por segundo al LLM, 0 = sin límite
	SystemPrompt    string        `yaml:"system_prompt"`
	ExtractProfile  bool          `yaml:"extract_profile"`
}

func loadAgentConfig() AgentConfig {
	return AgentConfig{
		Provider:        getEnv("AGENT_PROVIDER", ProviderScripted),
		Model:           getEnv("AGENT_MODEL", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		Timeout:         getEnvDuration("AGENT_TIMEOUT", 120*time.Second),
		Temperature:     getEnvFloat("AGENT_TEMPERATURE", 0.3),
		MaxTokens:       getEnvInt("AGENT_MAX_TOKENS", 1024),
		HistoryLimit:    getEnvInt("AGENT_HISTORY_LIMIT", 20),
		RateLimit:       getEnvFloat("AGENT_RATE_LIMIT", 0),
		SystemPrompt:    getEnv("AGENT_SYSTEM_PROMPT", defaultSystemPrompt),
		ExtractProfile:  getEnvBool("AGENT_EXTRACT_PROFILE", true),
	}
}

// ModelOrDefault returns the configured model or the provider's default
func (ac AgentConfig) ModelOrDefault() string {
	if ac.Model != "" {
		return ac.Model
	}
	switch ac.Provider {
	case ProviderAnthropic:
		return "claude-3-7-sonnet-latest"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return ""
	}
}

func (ac AgentConfig) validate() error {
	switch ac.Provider {
	case ProviderOpenAI:
		if ac.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AGENT_PROVIDER=openai")
		}
	case ProviderAnthropic:
		if ac.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AGENT_PROVIDER=anthropic")
		}
	case ProviderScripted:
	default:
		return fmt.Errorf("unknown AGENT_PROVIDER %q (use openai, anthropic or scripted)", ac.Provider)
	}
	if ac.Timeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT must be positive")
	}
	if ac.HistoryLimit < 0 {
		return fmt.Errorf("AGENT_HISTORY_LIMIT must not be negative")
	}
	if ac.RateLimit < 0 {
		return fmt.Errorf("AGENT_RATE_LIMIT must not be negative")
	}
	return nil
}
