package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel    = openai.Whisper1
	DefaultLanguage = "en"
)

// WhisperTranscriber transcribes through the OpenAI audio API.
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
	logger   *log.Logger
}

// WhisperOptions configures a WhisperTranscriber. Empty fields take the
// defaults.
type WhisperOptions struct {
	Model    string
	Language string
	// BaseURL points at an OpenAI-compatible endpoint.
	BaseURL string
	Logger  *log.Logger
}

// NewWhisperTranscriber creates a transcriber authenticated with apiKey.
func NewWhisperTranscriber(apiKey string, opts WhisperOptions) *WhisperTranscriber {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WhisperTranscriber{
		client:   openai.NewClientWithConfig(cfg),
		model:    opts.Model,
		language: opts.Language,
		logger:   logger.With("component", "stt"),
	}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if len(audio) == 0 {
		w.logger.Warn("empty audio data received")
		return "", nil
	}
	if len(audio) < MinAudioBytes {
		w.logger.Warn("audio chunk too small, skipping", "bytes", len(audio))
		return "", nil
	}
	if format == "" {
		format = "webm"
	}

	w.logger.Debug("transcribing audio", "format", format, "bytes", len(audio))
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "audio." + format,
		Reader:   bytes.NewReader(audio),
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcribing %d bytes of %s: %w", len(audio), format, err)
	}

	text := strings.TrimSpace(resp.Text)
	w.logger.Info("transcribed audio", "bytes", len(audio), "chars", len(text))
	return text, nil
}
