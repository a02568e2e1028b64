package ingestion

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into overlapping rune windows. A window ends at a
// paragraph break or sentence end when one lies in its second half.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker returns a Chunker, falling back to the defaults for
// non-positive values. Overlap is kept below size.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 5
	}
	return Chunker{Size: size, Overlap: overlap}
}

var sentenceEnds = []string{". ", "! ", "? ", "\n"}

// Split returns the non-empty trimmed chunks of text.
func (c Chunker) Split(text string) []string {
	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := min(start+c.Size, len(runes))
		window := string(runes[start:end])

		if end < len(runes) {
			if cut := breakPoint(window, c.Size/2); cut > 0 {
				window = string([]rune(window)[:cut])
				end = start + cut
			}
		}

		if chunk := strings.TrimSpace(window); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}
		start = max(start+1, end-c.Overlap)
	}
	return chunks
}

// breakPoint returns the rune offset just past the last paragraph break
// or sentence end that lies beyond half, or 0 when there is none.
func breakPoint(window string, half int) int {
	runes := []rune(window)
	if i := lastIndexRunes(runes, "\n\n"); i > half {
		return i
	}
	for _, sep := range sentenceEnds {
		if i := lastIndexRunes(runes, sep); i > half {
			return i + len([]rune(sep))
		}
	}
	return 0
}

func lastIndexRunes(runes []rune, sep string) int {
	s := []rune(sep)
	for i := len(runes) - len(s); i >= 0; i-- {
		match := true
		for j := range s {
			if runes[i+j] != s[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
