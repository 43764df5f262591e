package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ziadkadry99/livedoc/internal/patch"
)

func TestDecodeClient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ClientMessage
	}{
		{"audio", `{"type":"audio_chunk","data":"AAAA","format":"wav"}`, AudioChunk{Data: "AAAA", Format: "wav"}},
		{"audio default format", `{"type":"audio_chunk","data":"AAAA"}`, AudioChunk{Data: "AAAA", Format: "webm"}},
		{"stop", `{"type":"stop_recording"}`, StopRecording{}},
		{"transcription", `{"type":"transcription","text":"hello there"}`, TranscriptionInput{Text: "hello there"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClient([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeClient: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
			if got.Type() != tt.want.Type() {
				t.Errorf("Type() = %q", got.Type())
			}
		})
	}
}

func TestDecodeClientErrors(t *testing.T) {
	if _, err := DecodeClient([]byte(`{"type":"bogus"}`)); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("unknown type err = %v", err)
	}
	if _, err := DecodeClient([]byte(`{}`)); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("missing type err = %v", err)
	}
	for _, input := range []string{`not json`, `{"type":"audio_chunk"}`, `{"type":"transcription","text":5}`} {
		if _, err := DecodeClient([]byte(input)); err == nil {
			t.Errorf("DecodeClient(%s) succeeded", input)
		}
	}
}

func TestServerMessagesCarryTypeTag(t *testing.T) {
	tests := []struct {
		name string
		msg  any
		want string
	}{
		{"transcription", NewTranscription("hi", 1700000000.5), `{"type":"transcription","text":"hi","timestamp":1700000000.5}`},
		{"transcription no timestamp", Transcription{Text: "hi"}, `{"type":"transcription","text":"hi","timestamp":null}`},
		{"patch", DocumentPatch{Patch: patch.Patch{patch.Add("/actors/-", "Ops")}}, `{"type":"document_patch","patch":[{"op":"add","path":"/actors/-","value":"Ops"}]}`},
		{"empty patch", DocumentPatch{}, `{"type":"document_patch","patch":[]}`},
		{"status", Status{Status: StatusIdle, Message: "Ready"}, `{"type":"status","status":"idle","message":"Ready"}`},
		{"error", NewError("boom", CodeInvalidAudio), `{"type":"error","error":"boom","code":"invalid_audio"}`},
		{"error no code", NewError("boom", ""), `{"type":"error","error":"boom","code":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestTagged(t *testing.T) {
	got, err := tagged("x", struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"type":"x"}` {
		t.Errorf("got %s", got)
	}
}
