// ABOUTME: Splits document text into overlapping chunks for indexing
// ABOUTME: Breaks on word boundaries so chunks stay readable in retrieval
package index

import (
	"strings"
	"unicode"
)

// ChunkText splits text into chunks of at most size runes with the given
// overlap between consecutive chunks. Split points prefer word boundaries
// within the window so no chunk cuts a word in half. Leading and trailing
// whitespace is trimmed from every chunk.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	if overlap >= size {
		overlap = size / 2
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			boundary := end
			for boundary > start && !unicode.IsSpace(runes[boundary]) {
				boundary--
			}
			if boundary > start {
				end = boundary
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// EstimateChunks predicts how many chunks ChunkText will produce for a text
// of the given rune length. It is an estimate only: word-boundary splitting
// can shift counts by one either way.
func EstimateChunks(textLen, size, overlap int) int {
	if textLen <= 0 || size <= 0 {
		return 0
	}
	if textLen <= size {
		return 1
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	return 1 + (textLen-size+step-1)/step
}
