// Package ingest builds the passage index the engine queries: it walks a
// documentation tree, splits files into overlapping chunks, embeds them and
// upserts the result into an index store.
package ingest

import "strings"

// Splitter cuts text into chunks of at most ChunkSize runes with Overlap
// runes carried between consecutive chunks. Splitting prefers paragraph
// breaks, then line breaks, then word boundaries, and only hard-cuts text
// that has no usable separator.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// Defaults sized for documentation prose: big enough to hold a full
// paragraph, small enough that several chunks fit one prompt.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 150
)

var separators = []string{"\n\n", "\n", " "}

// NewSplitter returns a Splitter, substituting defaults for out-of-range
// values (Overlap must stay below ChunkSize).
func NewSplitter(chunkSize, overlap int) Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 3
		}
	}
	return Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split returns the chunks of text in order. Empty and whitespace-only
// input yields no chunks.
func (s Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	chunks := s.split(text, separators)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s Splitter) split(text string, seps []string) []string {
	if runeLen(text) <= s.ChunkSize {
		return []string{text}
	}
	if len(seps) == 0 {
		return s.window(text)
	}

	parts := strings.Split(text, seps[0])
	if len(parts) == 1 {
		// Separator absent; try the next finer one.
		return s.split(text, seps[1:])
	}

	// Oversized parts are split further before merging.
	var pieces []string
	for _, part := range parts {
		if runeLen(part) > s.ChunkSize {
			pieces = append(pieces, s.split(part, seps[1:])...)
		} else {
			pieces = append(pieces, part)
		}
	}
	return s.merge(pieces, seps[0])
}

// merge greedily packs pieces into chunks of at most ChunkSize runes,
// seeding each new chunk with the overlap tail of the previous one.
func (s Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen == 0 {
			return
		}
		chunk := cur.String()
		chunks = append(chunks, chunk)
		cur.Reset()
		tail := tailRunes(chunk, s.Overlap)
		cur.WriteString(tail)
		curLen = runeLen(tail)
	}

	for _, piece := range pieces {
		pLen := runeLen(piece)
		if curLen > 0 && curLen+runeLen(sep)+pLen > s.ChunkSize {
			flush()
			// Drop the overlap seed when it would push this piece over
			// the cap; the size bound wins over overlap.
			if curLen+runeLen(sep)+pLen > s.ChunkSize {
				cur.Reset()
				curLen = 0
			}
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += runeLen(sep)
		}
		cur.WriteString(piece)
		curLen += pLen
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// window hard-cuts text into ChunkSize rune windows stepping by
// ChunkSize-Overlap. Last resort for separator-free text.
func (s Splitter) window(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
