package services

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits long text on paragraph and sentence boundaries.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int) []string
	// Bound keeps whole leading chunks of text up to maxChars runes.
	Bound(text string, maxChars int) string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker.
func (tc *textChunker) ChunkText(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	appendPiece := func(piece, sep string) {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(sep+piece) > maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			appendPiece(para, "\n\n")
			continue
		}

		// paragraph too long on its own, split by sentences
		flush()
		for _, sentence := range splitIntoSentences(para) {
			for _, piece := range splitRunes(sentence, maxChunkSize) {
				appendPiece(piece, " ")
			}
		}
		flush()
	}
	flush()

	return chunks
}

// Bound implements TextChunker.
func (tc *textChunker) Bound(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return strings.TrimSpace(text)
	}

	chunkSize := maxChars / 4
	if chunkSize < 200 {
		chunkSize = maxChars
	}

	var kept []string
	used := 0
	for _, chunk := range tc.ChunkText(text, chunkSize) {
		n := utf8.RuneCountInString(chunk)
		if len(kept) > 0 {
			n += 2
		}
		if used+n > maxChars {
			break
		}
		kept = append(kept, chunk)
		used += n
	}
	return strings.Join(kept, "\n\n")
}

// splitIntoSentences keeps the terminating punctuation with each sentence.
func splitIntoSentences(text string) []string {
	var result []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				result = append(result, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		result = append(result, s)
	}
	return result
}

func splitRunes(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	var parts []string
	for len(runes) > size {
		parts = append(parts, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
