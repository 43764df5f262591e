package config

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "livedoc.yml"

// defaultModels maps each provider to the model used when none is set.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI:     "gpt-4o",
	ProviderOpenRouter: "openai/gpt-4o",
	ProviderOllama:     "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderOpenAI,
		Model:        defaultModels[ProviderOpenAI],
		WhisperModel: "whisper-1",
		Language:     "en",
		WindowSize:   250,
		HistorySize:  5,
		Temperature:  0.1,
		MaxTokens:    2000,
		LogLevel:     "info",
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			FrontendURL: "http://localhost:3000",
		},
		Session: SessionConfig{
			TimeoutMinutes: 60,
			MaxSessions:    100,
		},
	}
}

// DefaultModel returns the default model for provider, or "".
func DefaultModel(provider ProviderType) string {
	return defaultModels[provider]
}
