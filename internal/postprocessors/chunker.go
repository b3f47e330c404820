// Package postprocessors splits reader output into overlapping chunks
// ready for embedding.
package postprocessors

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// ChunkConfig configures the chunker. Sizes are in characters (runes).
type ChunkConfig struct {
	// Size is the maximum characters per chunk
	Size int

	// Overlap is the maximum characters shared by adjacent chunks
	Overlap int
}

// DefaultChunkConfig returns the production chunking parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    1000,
		Overlap: 100,
	}
}

// Validate checks that the chunker can always make progress.
func (c ChunkConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, size)", domain.ErrInvalidInput)
	}
	return nil
}

// Separators tried, in order, when looking for a natural break.
var separators = []string{"\n\n", "\n", " "}

// Verify interface compliance
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits segments into overlapping windows. It never changes the
// text: stitching a segment's chunks back together reproduces it exactly.
type Chunker struct {
	config ChunkConfig
}

// NewChunker creates a chunker. An invalid config falls back to defaults.
func NewChunker(config ChunkConfig) *Chunker {
	if config.Validate() != nil {
		config = DefaultChunkConfig()
	}
	return &Chunker{config: config}
}

// Config returns the effective configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.config
}

// Split chunks every segment. Chunks never span two segments and carry
// their segment's source and a copy of its metadata. IDs are left empty;
// the vector index assigns one per stored entry.
func (c *Chunker) Split(segments []domain.Segment) []*domain.Chunk {
	var result []*domain.Chunk
	for i, seg := range segments {
		result = append(result, c.splitSegment(seg, i)...)
	}
	return result
}

func (c *Chunker) splitSegment(seg domain.Segment, index int) []*domain.Chunk {
	if seg.Content == "" {
		return nil
	}

	runes := []rune(seg.Content)
	var chunks []*domain.Chunk
	for pos, w := range c.windows(runes) {
		meta := make(map[string]string, len(seg.Metadata)+1)
		for k, v := range seg.Metadata {
			meta[k] = v
		}
		meta["segment"] = strconv.Itoa(index)

		chunks = append(chunks, &domain.Chunk{
			Source:      seg.Source,
			Content:     string(runes[w[0]:w[1]]),
			Position:    pos,
			StartOffset: w[0],
			EndOffset:   w[1],
			Metadata:    meta,
		})
	}
	return chunks
}

// windows returns the [start, end) rune ranges covering text.
func (c *Chunker) windows(text []rune) [][2]int {
	n := len(text)
	var out [][2]int

	start := 0
	for {
		maxEnd := start + c.config.Size
		if maxEnd >= n {
			return append(out, [2]int{start, n})
		}

		end := c.findBreakPoint(text, start, maxEnd)
		out = append(out, [2]int{start, end})

		next := end - c.config.Overlap
		// Start the next window on a word boundary inside the overlap.
		for j := next; j < end-1; j++ {
			if text[j] == ' ' || text[j] == '\n' {
				next = j + 1
				break
			}
		}
		if next <= start {
			next = start + 1
		}
		start = next
	}
}

// findBreakPoint returns the end of the window starting at start. It
// prefers the last paragraph, line or word break past the overlap region
// and falls back to a hard cut at maxEnd.
func (c *Chunker) findBreakPoint(text []rune, start, maxEnd int) int {
	lo := start + c.config.Overlap
	for _, sep := range separators {
		s := []rune(sep)
		for i := maxEnd - len(s); i >= lo; i-- {
			if hasPrefixAt(text, s, i) {
				return i + len(s)
			}
		}
	}
	return maxEnd
}

func hasPrefixAt(text, sep []rune, i int) bool {
	if i < 0 || i+len(sep) > len(text) {
		return false
	}
	for k, r := range sep {
		if text[i+k] != r {
			return false
		}
	}
	return true
}

// Stitch rebuilds segment text from consecutive chunks of that segment by
// dropping each chunk's overlap with its predecessor.
func Stitch(chunks []*domain.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		overlap := chunks[i-1].EndOffset - chunks[i].StartOffset
		if overlap < 0 {
			overlap = 0
		}
		content := chunks[i].Content
		if overlap >= utf8.RuneCountInString(content) {
			continue
		}
		b.WriteString(string([]rune(content)[overlap:]))
	}
	return b.String()
}

// GroupBySegment splits a chunk list into per-segment runs, preserving order.
func GroupBySegment(chunks []*domain.Chunk) [][]*domain.Chunk {
	var groups [][]*domain.Chunk
	current := ""
	for _, ch := range chunks {
		key := ch.Source + "#" + ch.Metadata["segment"]
		if len(groups) == 0 || key != current {
			groups = append(groups, nil)
			current = key
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], ch)
	}
	return groups
}
