package ingest

import "strings"

// defaultSeparators are tried in order: paragraph, line, sentence, word,
// and finally raw characters when nothing else fits.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter cuts text into overlapping chunks, preferring
// paragraph and sentence boundaries over mid-token cuts.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split returns the chunk texts in document order. Whitespace-only input
// yields no chunks.
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	chunks := s.splitRecursive(text, s.separators)

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *RecursiveSplitter) splitRecursive(text string, separators []string) []string {
	if len([]rune(text)) <= s.ChunkSize {
		return []string{text}
	}

	// Pick the first separator actually present; the empty separator
	// always matches and falls back to fixed-size rune windows.
	separator := separators[len(separators)-1]
	rest := separators
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return s.splitRunes(text)
	}

	var pieces []string
	for _, part := range strings.Split(text, separator) {
		if part == "" {
			continue
		}
		if len([]rune(part)) > s.ChunkSize {
			pieces = append(pieces, s.splitRecursive(part, rest)...)
		} else {
			pieces = append(pieces, part)
		}
	}

	return s.merge(pieces, separator)
}

// merge joins small pieces back into chunks up to ChunkSize, carrying
// ChunkOverlap runes of trailing pieces into the next chunk.
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	var chunks []string
	var window []string
	windowLen := 0
	sepLen := len([]rune(separator))

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(window, separator))

		// Drop from the front until what remains fits in the overlap.
		for windowLen > s.ChunkOverlap && len(window) > 1 {
			windowLen -= len([]rune(window[0])) + sepLen
			window = window[1:]
		}
		if windowLen > s.ChunkOverlap {
			window = nil
			windowLen = 0
		}
	}

	for _, piece := range pieces {
		pieceLen := len([]rune(piece))
		if windowLen > 0 && windowLen+sepLen+pieceLen > s.ChunkSize {
			flush()
		}
		if windowLen > 0 {
			windowLen += sepLen
		}
		window = append(window, piece)
		windowLen += pieceLen
	}

	if len(window) > 0 {
		chunks = append(chunks, strings.Join(window, separator))
	}
	return chunks
}

// splitRunes is the last resort for a run with no separators at all.
func (s *RecursiveSplitter) splitRunes(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.ChunkOverlap

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
