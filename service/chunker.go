package service

import (
	"errors"
	"strings"

	"github.com/tieubaoca/docqa-be/types"
)

// ErrChunkOverlap is returned when the configured overlap would keep the
// splitter from advancing.
var ErrChunkOverlap = errors.New("chunk overlap must be smaller than chunk size")

var DefaultChunkerConfig = types.ChunkerConfig{
	ChunkSize:    1000,
	ChunkOverlap: 100,
}

// Chunker splits text into a fixed-size sliding window where consecutive
// chunks share exactly ChunkOverlap bytes. Rejoining the chunks with the
// overlaps dropped reproduces the input.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(cfg types.ChunkerConfig) (*Chunker, error) {
	if cfg.ChunkSize <= 0 || cfg.ChunkOverlap < 0 {
		return nil, ErrChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, ErrChunkOverlap
	}
	return &Chunker{
		size:    cfg.ChunkSize,
		overlap: cfg.ChunkOverlap,
	}, nil
}

// Split returns the ordered chunk sequence for text. Chunk i starts at
// byte offset i*(size-overlap); the last chunk may be shorter than size.
// Offsets are bytes, not runes, so a multi-byte rune sitting on a window
// edge is cut across the neighboring chunks. Rejoin still reconstructs
// the input byte for byte.
func (c *Chunker) Split(text string) []types.Chunk {
	if len(text) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var chunks []types.Chunk
	for start := 0; start == 0 || start < len(text)-c.overlap; start += step {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, types.Chunk{
			Text:  text[start:end],
			Index: len(chunks),
			Start: start,
			Page:  1,
		})
		if end == len(text) {
			break
		}
	}
	return chunks
}

// SplitPages joins page texts and splits the whole document, tagging
// each chunk with the page its start offset falls on.
func (c *Chunker) SplitPages(pages []string) []types.Chunk {
	// page i starts at boundaries[i] in the joined text
	boundaries := make([]int, len(pages))
	offset := 0
	for i, page := range pages {
		boundaries[i] = offset
		offset += len(page)
		if i < len(pages)-1 {
			offset++ // separator
		}
	}

	chunks := c.Split(strings.Join(pages, "\n"))
	for i := range chunks {
		chunks[i].Page = pageAt(boundaries, chunks[i].Start)
	}
	return chunks
}

// Rejoin reverses Split: the first chunk verbatim, then every following
// chunk with its leading overlap dropped.
func (c *Chunker) Rejoin(chunks []types.Chunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			b.WriteString(chunk.Text)
			continue
		}
		if len(chunk.Text) > c.overlap {
			b.WriteString(chunk.Text[c.overlap:])
		}
	}
	return b.String()
}

func pageAt(boundaries []int, offset int) int {
	page := 1
	for i, start := range boundaries {
		if offset >= start {
			page = i + 1
		}
	}
	return page
}
