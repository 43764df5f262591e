package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
)

// Config is the top-level livedoc configuration, corresponding to livedoc.yml.
type Config struct {
	Provider          ProviderType  `yaml:"provider" koanf:"provider"`
	Model             string        `yaml:"model" koanf:"model"`
	WhisperModel      string        `yaml:"whisper_model" koanf:"whisper_model"`
	Language          string        `yaml:"language" koanf:"language"`
	WindowSize        int           `yaml:"window_size" koanf:"window_size"`
	HistorySize       int           `yaml:"history_size" koanf:"history_size"`
	Temperature       float64       `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int           `yaml:"max_tokens" koanf:"max_tokens"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	VerboseLLMLogging bool          `yaml:"verbose_llm_logging" koanf:"verbose_llm_logging"`
	LogLevel          string        `yaml:"log_level" koanf:"log_level"`
	Server            ServerConfig  `yaml:"server" koanf:"server"`
	Session           SessionConfig `yaml:"session" koanf:"session"`
	Audit             AuditConfig   `yaml:"audit" koanf:"audit"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string `yaml:"host" koanf:"host"`
	Port        int    `yaml:"port" koanf:"port"`
	FrontendURL string `yaml:"frontend_url" koanf:"frontend_url"`
}

// SessionConfig bounds the in-memory session registry.
type SessionConfig struct {
	TimeoutMinutes int `yaml:"timeout_minutes" koanf:"timeout_minutes"`
	MaxSessions    int `yaml:"max_sessions" koanf:"max_sessions"`
}

// AuditConfig locates the diagnostics database. An empty DBPath keeps it in
// memory.
type AuditConfig struct {
	DBPath string `yaml:"db_path" koanf:"db_path"`
}
