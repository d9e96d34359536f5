package transform

import "strings"

// DefaultChunkWords is the synthesis chunk ceiling. Chunks this size stay
// well inside TTS request limits while keeping request counts low.
const DefaultChunkWords = 250

// ChunkWords splits text into consecutive chunks of at most maxWords
// whitespace-delimited words. Splitting is purely positional: word order
// is preserved and joining the chunks with single spaces reproduces the
// normalized input. A non-positive maxWords falls back to
// DefaultChunkWords. Empty or whitespace-only input yields no chunks.
func ChunkWords(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
