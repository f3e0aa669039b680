package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	ThreadPerTurn    = "per_turn"
	ThreadPerSession = "per_session"
)

// minChatTimeout is the floor for the client's wait on /chat.
const minChatTimeout = 120 * time.Second

// ShellConfig configura el cliente de terminal
type ShellConfig struct {
	GatewayURL     string        `yaml:"gateway_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MemoryTimeout  time.Duration `yaml:"memory_timeout"`
	ThreadPolicy   string        `yaml:"thread_policy"`
	WatchMemory    bool          `yaml:"watch_memory"`
}

// LoadShell loads the client shell's configuration from the environment
func LoadShell() (*ShellConfig, error) {
	cfg := &ShellConfig{
		GatewayURL:     strings.TrimRight(getEnv("SHELL_GATEWAY_URL", "http://127.0.0.1:8000"), "/"),
		RequestTimeout: getEnvDuration("SHELL_REQUEST_TIMEOUT", minChatTimeout),
		MemoryTimeout:  getEnvDuration("SHELL_MEMORY_TIMEOUT", 10*time.Second),
		ThreadPolicy:   getEnv("SHELL_THREAD_POLICY", ThreadPerTurn),
		WatchMemory:    getEnvBool("SHELL_WATCH_MEMORY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("shell config validation failed: %w", err)
	}
	return cfg, nil
}

func (sc *ShellConfig) Validate() error {
	if sc.GatewayURL == "" {
		return fmt.Errorf("SHELL_GATEWAY_URL is required")
	}
	if sc.RequestTimeout < minChatTimeout {
		return fmt.Errorf("SHELL_REQUEST_TIMEOUT must be at least %s", minChatTimeout)
	}
	if sc.MemoryTimeout <= 0 {
		return fmt.Errorf("SHELL_MEMORY_TIMEOUT must be positive")
	}
	switch sc.ThreadPolicy {
	case ThreadPerTurn, ThreadPerSession:
	default:
		return fmt.Errorf("unknown SHELL_THREAD_POLICY %q (use per_turn or per_session)", sc.ThreadPolicy)
	}
	return nil
}
