package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	chunkSize    = 500
	chunkOverlap = 50
)

// LoadDocuments reads every *.txt file under dir and splits it into
// overlapping chunks suitable for embedding.
func LoadDocuments(dir string) ([]Snippet, error) {
	pattern := filepath.Join(dir, "*.txt")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("rag: listing documents in %s: %w", dir, err)
	}

	var chunks []Snippet
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("rag: reading %s: %w", path, err)
		}
		source := filepath.Base(path)
		for _, content := range splitText(string(raw), chunkSize, chunkOverlap) {
			chunks = append(chunks, Snippet{Content: content, Source: source})
		}
	}
	return chunks, nil
}

// splitText produces chunks of at most size characters with the given
// overlap, preferring to break at whitespace.
func splitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}
		// Back up to the last whitespace so words stay intact.
		cut := end
		for cut > start && !isSpace(text[cut-1]) {
			cut--
		}
		if cut == start {
			cut = end
		}
		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := cut - overlap
		if next <= start {
			next = cut
		}
		// Realign the overlap to a word boundary.
		for next < cut && !isSpace(text[next-1]) {
			next++
		}
		start = next
	}
	return chunks
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
