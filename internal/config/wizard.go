package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to livedoc! Let's configure the transcription server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{string(ProviderOpenAI), string(ProviderOpenRouter), string(ProviderOllama)},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: DefaultModel(cfg.Provider),
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Transcription language.
	langPrompt := promptui.Prompt{
		Label:   "Transcription language (ISO-639-1)",
		Default: cfg.Language,
	}
	if cfg.Language, err = langPrompt.Run(); err != nil {
		return nil, fmt.Errorf("language: %w", err)
	}

	// 4. Listen port.
	portPrompt := promptui.Prompt{
		Label:    "Server port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 5. Diagnostics database.
	auditPrompt := promptui.Prompt{
		Label:   "Diagnostics database file (leave blank to keep in memory)",
		Default: "",
	}
	if cfg.Audit.DBPath, err = auditPrompt.Run(); err != nil {
		return nil, fmt.Errorf("audit db path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	envVar := APIKeyEnvVar(cfg.Provider)
	if envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running livedoc serve.\n", envVar)
	}
	if cfg.Provider != ProviderOpenAI && os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("Note: Audio transcription uses Whisper and needs OPENAI_API_KEY.")
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n <= 0 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
