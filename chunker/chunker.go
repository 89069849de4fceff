package chunker

import (
	"fmt"
	"strings"
)

// Fragments at or below this length carry no useful retrieval signal.
const minChunkLen = 10

// Split cuts text into chunks of at most maxSize runes, with consecutive
// chunks sharing overlap runes so that context survives a split boundary.
// When a cut would land mid-word the chunk is shortened to the last space
// inside the window. Chunks are trimmed of surrounding whitespace; tiny
// trailing fragments already contained in the previous chunk are dropped.
// Empty or whitespace-only input yields no chunks, which is not an error.
func Split(text string, maxSize, overlap int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", maxSize, overlap)
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		window := runes[start:end]

		// Back off to a word boundary unless this is the final window.
		if end < len(runes) {
			if cut := lastSpace(window); cut > 0 {
				window = window[:cut]
				end = start + cut
			}
		}

		content := strings.TrimSpace(string(window))
		if keep(chunks, content) {
			chunks = append(chunks, content)
		}

		next := end - overlap
		if next <= start {
			// Guarantees forward progress when the window shrank below the overlap.
			next = end
		}
		start = next
	}

	return chunks, nil
}

// keep filters out empty chunks and short fragments whose text the previous
// chunk already covers via the overlap.
func keep(chunks []string, content string) bool {
	if content == "" {
		return false
	}
	if len([]rune(content)) > minChunkLen {
		return true
	}
	return len(chunks) == 0 || !strings.Contains(chunks[len(chunks)-1], content)
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' {
			return i
		}
	}
	return -1
}
