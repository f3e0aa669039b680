package config

type ServerConfig struct {
	Port        int      `yaml:"port"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
	BaseURL     string   `yaml:"base_url"`
	CORSOrigins []string `yaml:"cors_origins"`
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnvInt("SERVER_PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		BaseURL:     getEnv("BASE_URL", "http://127.0.0.1:8000"),
		CORSOrigins: getEnvStringSlice("CORS_ORIGINS", []string{"*"}),
	}
}
