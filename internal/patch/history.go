package patch

import "sync"

// DefaultHistorySize is the number of recent patches kept per session.
const DefaultHistorySize = 5

// History is a bounded log of applied patches, most recent last. When full,
// the oldest patch is evicted first.
type History struct {
	mu      sync.Mutex
	max     int
	patches []Patch
}

// NewHistory creates a history holding at most max patches. A non-positive
// max falls back to DefaultHistorySize.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Push records p. Empty patches are ignored.
func (h *History) Push(p Patch) {
	if len(p) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.patches = append(h.patches, p)
	if over := len(h.patches) - h.max; over > 0 {
		h.patches = append([]Patch(nil), h.patches[over:]...)
	}
}

// Recent returns the recorded patches in order, oldest first.
func (h *History) Recent() []Patch {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Patch, len(h.patches))
	copy(out, h.patches)
	return out
}

// Len returns the number of recorded patches.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.patches)
}

// Max returns the capacity of the history.
func (h *History) Max() int {
	return h.max
}
