// Package parser splits uploaded documents into indexable chunks. Plain-text
// and word-processor formats are grouped by paragraph under a soft size cap;
// PDFs are decomposed into metadata, table-of-contents, page and table chunks.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"assistant/types"
)

// ErrUnsupportedFormat is returned for filenames outside the recognized
// extension set. Surfaced to API clients as a 400.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SupportedExtensions lists the accepted filename extensions.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}

// maxChunkSize is the soft character cap for paragraph-grouped chunks.
// A single paragraph longer than the cap still becomes one chunk.
const maxChunkSize = 1000

// Supported reports whether the filename's extension is recognized.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Parse reads the document at path and returns its chunks. Every chunk gets
// a fresh id and carries the original filename as its source.
func Parse(path, filename string) ([]types.Chunk, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return parsePDF(path, filename)
	case ".docx":
		return parseDOCX(path, filename)
	case ".txt":
		return parseTXT(path, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func parseTXT(path, filename string) ([]types.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read txt: %w", err)
	}
	paragraphs := strings.Split(string(data), "\n\n")
	return groupParagraphs(paragraphs, filename), nil
}

// groupParagraphs accumulates paragraphs into chunks until appending the
// next one would push the accumulated size past maxChunkSize. Blank
// paragraphs are skipped and never force a boundary.
func groupParagraphs(paragraphs []string, source string) []types.Chunk {
	var chunks []types.Chunk
	var current string
	var currentSize int

	for _, para := range paragraphs {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if currentSize+len(para) > maxChunkSize && current != "" {
			chunks = append(chunks, paragraphChunk(current, source))
			current = para
			currentSize = len(para)
			continue
		}
		if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
		currentSize += len(para)
	}

	if current != "" {
		chunks = append(chunks, paragraphChunk(current, source))
	}
	return chunks
}

func newChunkID() string {
	return uuid.New().String()
}

func paragraphChunk(content, source string) types.Chunk {
	return types.Chunk{
		ID:      newChunkID(),
		Content: content,
		Metadata: types.ChunkMeta{
			Source:    source,
			ChunkType: types.ChunkParagraphGroup,
		},
	}
}

func pageChunk(content, source string, page int) types.Chunk {
	return types.Chunk{
		ID:      newChunkID(),
		Content: content,
		Metadata: types.ChunkMeta{
			Source:    source,
			ChunkType: types.ChunkPage,
			Page:      page,
		},
	}
}

func tableChunk(rows [][]string, source string, page, tableIndex int) types.Chunk {
	var b strings.Builder
	b.WriteString("Table content:\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	idx := tableIndex
	return types.Chunk{
		ID:      newChunkID(),
		Content: b.String(),
		Metadata: types.ChunkMeta{
			Source:     source,
			ChunkType:  types.ChunkTable,
			Page:       page,
			TableIndex: &idx,
		},
	}
}
