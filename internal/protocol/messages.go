// Package protocol defines the JSON messages exchanged over the session
// WebSocket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ziadkadry99/livedoc/internal/patch"
)

// Message type tags.
const (
	TypeAudioChunk    = "audio_chunk"
	TypeStopRecording = "stop_recording"
	TypeTranscription = "transcription"
	TypeDocumentPatch = "document_patch"
	TypeStatus        = "status"
	TypeError         = "error"
)

// DefaultAudioFormat is assumed when an audio chunk names no format.
const DefaultAudioFormat = "webm"

// ErrUnknownMessageType is returned by DecodeClient for an unrecognised tag.
var ErrUnknownMessageType = errors.New("unknown message type")

// ClientMessage is one of AudioChunk, StopRecording or TranscriptionInput.
type ClientMessage interface {
	clientMessage()
	Type() string
}

// AudioChunk carries base64-encoded recorded audio.
type AudioChunk struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// StopRecording ends the recording on the client side.
type StopRecording struct{}

// TranscriptionInput carries text already transcribed elsewhere.
type TranscriptionInput struct {
	Text string `json:"text"`
}

func (AudioChunk) clientMessage()         {}
func (StopRecording) clientMessage()      {}
func (TranscriptionInput) clientMessage() {}

func (AudioChunk) Type() string         { return TypeAudioChunk }
func (StopRecording) Type() string      { return TypeStopRecording }
func (TranscriptionInput) Type() string { return TypeTranscription }

// DecodeClient decodes a client frame by its "type" field.
func DecodeClient(data []byte) (ClientMessage, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}

	switch head.Type {
	case TypeAudioChunk:
		var m AudioChunk
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", head.Type, err)
		}
		if m.Data == "" {
			return nil, fmt.Errorf("decoding %s: missing data", head.Type)
		}
		if m.Format == "" {
			m.Format = DefaultAudioFormat
		}
		return m, nil
	case TypeStopRecording:
		return StopRecording{}, nil
	case TypeTranscription:
		var m TranscriptionInput
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", head.Type, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, head.Type)
	}
}

// Status values.
const (
	StatusProcessing = "processing"
	StatusIdle       = "idle"
	StatusError      = "error"
)

// Transcription echoes newly transcribed text to the client. Timestamp is
// Unix seconds.
type Transcription struct {
	Text      string   `json:"text"`
	Timestamp *float64 `json:"timestamp"`
}

// DocumentPatch carries an applied patch.
type DocumentPatch struct {
	Patch patch.Patch `json:"patch"`
}

// Status reports what the server is doing for the session.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Error reports a failure that did not close the connection.
type Error struct {
	Error string  `json:"error"`
	Code  *string `json:"code"`
}

func (m Transcription) MarshalJSON() ([]byte, error) {
	type plain Transcription
	return tagged(TypeTranscription, plain(m))
}

func (m DocumentPatch) MarshalJSON() ([]byte, error) {
	if m.Patch == nil {
		m.Patch = patch.Patch{}
	}
	type plain DocumentPatch
	return tagged(TypeDocumentPatch, plain(m))
}

func (m Status) MarshalJSON() ([]byte, error) {
	type plain Status
	return tagged(TypeStatus, plain(m))
}

func (m Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return tagged(TypeError, plain(m))
}

// tagged marshals v with a leading "type" member.
func tagged(typ string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(typ)
	out := make([]byte, 0, len(body)+len(tag)+10)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

// NewTranscription builds a Transcription stamped with unix seconds ts.
func NewTranscription(text string, ts float64) Transcription {
	return Transcription{Text: text, Timestamp: &ts}
}

// NewError builds an Error, with code omitted when empty.
func NewError(msg, code string) Error {
	e := Error{Error: msg}
	if code != "" {
		e.Code = &code
	}
	return e
}

// Error codes.
const (
	CodeInvalidMessage      = "invalid_message"
	CodeInvalidAudio        = "invalid_audio"
	CodeTranscriptionFailed = "transcription_failed"
	CodeProcessingFailed    = "processing_failed"
	CodeSessionNotFound     = "session_not_found"
	CodeSessionExpired      = "session_expired"
	CodeSessionLimit        = "session_limit"
)
