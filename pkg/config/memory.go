package config

import (
	"fmt"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type MemoryConfig struct {
	Backend      string        `yaml:"backend"`
	KeyPrefix    string        `yaml:"key_prefix"`
	CacheEnabled bool          `yaml:"cache_enabled"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheMaxCost int64         `yaml:"cache_max_cost"`

	CheckpointBackend string        `yaml:"checkpoint_backend"`
	CheckpointTTL     time.Duration `yaml:"checkpoint_ttl"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
}

func loadMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Backend:      getEnv("MEMORY_BACKEND", BackendMemory),
		KeyPrefix:    getEnv("MEMORY_KEY_PREFIX", "shohayok"),
		CacheEnabled: getEnvBool("MEMORY_CACHE_ENABLED", false),
		CacheTTL:     getEnvDuration("MEMORY_CACHE_TTL", 10*time.Minute),
		CacheMaxCost: int64(getEnvInt("MEMORY_CACHE_MAX_COST", 64<<20)),

		CheckpointBackend: getEnv("CHECKPOINT_BACKEND", BackendMemory),
		CheckpointTTL:     getEnvDuration("CHECKPOINT_TTL", 24*time.Hour),
		CleanupInterval:   getEnvDuration("CHECKPOINT_CLEANUP_INTERVAL", 10*time.Minute),
	}
}

func (mc MemoryConfig) validate() error {
	switch mc.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown MEMORY_BACKEND %q (use memory, redis or postgres)", mc.Backend)
	}
	switch mc.CheckpointBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown CHECKPOINT_BACKEND %q (use memory or redis)", mc.CheckpointBackend)
	}
	if mc.CheckpointTTL <= 0 {
		return fmt.Errorf("CHECKPOINT_TTL must be positive")
	}
	if mc.CleanupInterval <= 0 {
		return fmt.Errorf("CHECKPOINT_CLEANUP_INTERVAL must be positive")
	}
	if mc.CacheEnabled && mc.CacheMaxCost <= 0 {
		return fmt.Errorf("MEMORY_CACHE_MAX_COST must be positive when the cache is enabled")
	}
	return nil
}
