package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	sentenceTerminators = ".!?"
	breakingSpaces      = " \t\n\r"
)

// Chunk is one piece of a large input and its byte offset in the original.
type Chunk struct {
	Offset int
	Text   string
}

// ChunkPlainText splits text into pieces of at most maxChar bytes. Each cut
// falls after the last sentence terminator in the window, else after the last
// space, else at the window edge on a rune boundary. The last chunk takes the
// remainder. Chunks are trimmed; blank chunks are dropped.
func ChunkPlainText(text string, maxChar int) []Chunk {
	if maxChar < 1 {
		maxChar = DefaultMaxChar
	}
	var chunks []Chunk
	start := 0
	for len(text)-start > maxChar {
		cut := cutPoint(text, start, maxChar)
		chunks = appendChunk(chunks, text, start, start+cut)
		start += cut
	}
	return appendChunk(chunks, text, start, len(text))
}

func cutPoint(text string, start, maxChar int) int {
	window := text[start : start+maxChar]
	if i := strings.LastIndexAny(window, sentenceTerminators); i >= 0 {
		return i + 1
	}
	if i := strings.LastIndexAny(window, breakingSpaces); i >= 0 {
		return i + 1
	}
	cut := maxChar
	for cut > 0 && !utf8.RuneStart(text[start+cut]) {
		cut--
	}
	if cut == 0 {
		// A single rune wider than the window.
		cut = maxChar
		for start+cut < len(text) && !utf8.RuneStart(text[start+cut]) {
			cut++
		}
	}
	return cut
}

func appendChunk(chunks []Chunk, text string, from, to int) []Chunk {
	piece := text[from:to]
	trimmed := strings.TrimSpace(piece)
	if trimmed == "" {
		return chunks
	}
	lead := len(piece) - len(strings.TrimLeftFunc(piece, unicode.IsSpace))
	return append(chunks, Chunk{Offset: from + lead, Text: trimmed})
}
