package config

import (
	"fmt"
	"time"
)

type SessionConfig struct {
	SigningKey string        `yaml:"signing_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	Issuer     string        `yaml:"issuer"`
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		SigningKey: getEnv("SESSION_SIGNING_KEY", ""),
		TokenTTL:   getEnvDuration("SESSION_TOKEN_TTL", 12*time.Hour),
		Issuer:     getEnv("SESSION_ISSUER", "shohayok"),
	}
}

// TokensEnabled reports whether the gateway requires session tokens
func (sc SessionConfig) TokensEnabled() bool {
	return sc.SigningKey != ""
}

func (sc SessionConfig) validate() error {
	if !sc.TokensEnabled() {
		return nil
	}
	if len(sc.SigningKey) < 32 {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 characters")
	}
	if sc.TokenTTL <= 0 {
		return fmt.Errorf("SESSION_TOKEN_TTL must be positive")
	}
	return nil
}
