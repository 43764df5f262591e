// Package stt turns recorded audio chunks into text.
package stt

import "context"

// MinAudioBytes is the smallest chunk worth sending for transcription.
// Smaller chunks are almost always truncated container fragments.
const MinAudioBytes = 1000

// Transcriber converts one chunk of audio in the given container format
// ("webm", "wav", ...) into text. Too-small input yields "" and no error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}
