package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ziadkadry99/livedoc/internal/config"
	"github.com/ziadkadry99/livedoc/internal/llm"
	"github.com/ziadkadry99/livedoc/internal/logging"
	"github.com/ziadkadry99/livedoc/internal/orchestrator"
	"github.com/ziadkadry99/livedoc/internal/stt"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `livedoc init` to create a config file", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.VerboseLLMLogging = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	return logging.New(os.Stderr, cfg.LogLevel)
}

// createLLMProviderFromConfig creates the configured LLM provider, wrapped
// in a rate limiter when requests_per_minute is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute), nil
}

func newOrchestrator(cfg *config.Config, provider llm.Provider, logger *log.Logger, rec orchestrator.Recorder) *orchestrator.Orchestrator {
	return orchestrator.New(provider, orchestrator.Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Verbose:     cfg.VerboseLLMLogging,
		Logger:      logger,
		Recorder:    rec,
	})
}

// createTranscriber returns a Whisper transcriber, or nil when no OpenAI key
// is available. Without one the server still accepts text transcriptions.
func createTranscriber(cfg *config.Config, logger *log.Logger) stt.Transcriber {
	apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
	if apiKey == "" {
		return nil
	}
	return stt.NewWhisperTranscriber(apiKey, stt.WhisperOptions{
		Model:    cfg.WhisperModel,
		Language: cfg.Language,
		BaseURL:  os.Getenv("OPENAI_BASE_URL"),
		Logger:   logger,
	})
}
