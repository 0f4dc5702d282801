// Package chunker splits documents into overlapping retrieval-sized chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragchatd/internal/document"
)

// defaultSeparators is ordered coarsest first: paragraph, line, word,
// then single characters as a last resort.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunk is a contiguous piece of a document's text. Chunks inherit their
// parent document's source metadata; Ordinal is the chunk's position within
// that document and is what deterministic index keys derive from.
type Chunk struct {
	Text    string
	Source  string
	Page    int
	Ordinal int
}

// Splitter splits text recursively by an ordered separator list, merging
// small pieces back together up to ChunkSize with ChunkOverlap characters
// of trailing context carried into the next chunk.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a Splitter. chunkOverlap must be smaller than
// chunkSize.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}, nil
}

// Split chunks a single document. A document shorter than the chunk size
// yields exactly one chunk with no overlap applied; an empty document
// yields no chunks.
func (s *Splitter) Split(doc document.Document) []Chunk {
	pieces := s.splitText(doc.Text, s.separators)

	chunks := make([]Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, Chunk{
			Text:    text,
			Source:  doc.Metadata.Source,
			Page:    doc.Metadata.Page,
			Ordinal: i,
		})
	}
	return chunks
}

// SplitAll chunks documents in order, preserving document order in the
// output.
func (s *Splitter) SplitAll(docs []document.Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.Split(doc)...)
	}
	return chunks
}

// splitText splits text with the coarsest separator present, recursing into
// the next separator for any piece still exceeding the chunk size.
func (s *Splitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	splits := splitWithSeparator(text, separator)

	var final []string
	var good []string
	for _, piece := range splits {
		if len(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(remaining) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, remaining)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge greedily joins adjacent small pieces up to the chunk size. When a
// chunk is emitted, pieces are dropped from the front until at most
// chunkOverlap characters remain; those become the trailing context shared
// with the next chunk.
func (s *Splitter) merge(splits []string, separator string) []string {
	sepLen := len(separator)

	var merged []string
	var current []string
	total := 0

	for _, piece := range splits {
		joined := total + len(piece)
		if len(current) > 0 {
			joined += sepLen
		}

		if joined > s.chunkSize && len(current) > 0 {
			if doc := joinPieces(current, separator); doc != "" {
				merged = append(merged, doc)
			}
			// Carry overlap: shrink from the front until the retained tail
			// fits within chunkOverlap (and leaves room for the new piece).
			for total > s.chunkOverlap ||
				(total+len(piece)+sepLen > s.chunkSize && total > 0) {
				total -= len(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		current = append(current, piece)
		total += len(piece)
		if len(current) > 1 {
			total += sepLen
		}
	}

	if doc := joinPieces(current, separator); doc != "" {
		merged = append(merged, doc)
	}
	return merged
}

// splitWithSeparator splits text by separator; the empty separator splits
// into single characters (rune-safe).
func splitWithSeparator(text, separator string) []string {
	if separator == "" {
		runes := []rune(text)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}
	return strings.Split(text, separator)
}

// joinPieces joins pieces with separator and strips surrounding whitespace.
func joinPieces(pieces []string, separator string) string {
	return strings.TrimSpace(strings.Join(pieces, separator))
}
