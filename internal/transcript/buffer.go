// Package transcript accumulates speech transcription and extracts the
// overlapping tail windows fed to the document generator.
package transcript

import (
	"strings"
	"sync"
)

// DefaultWindowSize is the tail window length in words.
const DefaultWindowSize = 250

// Buffer is an append-only transcript log with a sliding tail window.
//
// Every Tail call returns a suffix of the same growing text, so consecutive
// windows overlap. A correction whose trigger phrase ("actually, change that
// to...") and referent arrive in separate appends is therefore still seen
// as a whole by the generator.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	windowSize int
}

// NewBuffer creates a buffer whose tail window holds windowSize words.
// A non-positive size falls back to DefaultWindowSize.
func NewBuffer(windowSize int) *Buffer {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Buffer{windowSize: windowSize}
}

// Append adds text to the buffer. It reports false, leaving the buffer
// untouched, when text is empty after trimming.
func (b *Buffer) Append(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.text == "" {
		b.text = text
	} else {
		b.text += " " + text
	}
	return true
}

// Tail returns the last WindowSize words of the transcript joined by single
// spaces, or the full text unchanged when it is not longer than the window.
func (b *Buffer) Tail() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.text == "" {
		return ""
	}

	words := strings.Fields(b.text)
	if len(words) <= b.windowSize {
		return b.text
	}
	return strings.Join(words[len(words)-b.windowSize:], " ")
}

// FullText returns everything accumulated so far.
func (b *Buffer) FullText() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// WordCount returns the number of whitespace-delimited words in the buffer.
func (b *Buffer) WordCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(strings.Fields(b.text))
}

// WindowSize returns the configured tail window length.
func (b *Buffer) WindowSize() int {
	return b.windowSize
}

// Clear drops all accumulated text.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
}
