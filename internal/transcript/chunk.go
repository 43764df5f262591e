package transcript

import "strings"

// Chunks splits text into consecutive pieces of at most size words, the
// way a recorder would deliver it. A non-positive size yields one chunk.
func Chunks(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if size <= 0 || size >= len(words) {
		return []string{strings.Join(words, " ")}
	}

	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
