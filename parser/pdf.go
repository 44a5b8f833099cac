package parser

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"assistant/types"
)

// metadataMinChars is the minimum rendered length for a metadata chunk to be
// worth emitting.
const metadataMinChars = 20

// cellGap is the horizontal gap, in points, that separates two table cells.
const cellGap = 12.0

// parsePDF runs the primary extractor and falls back to a cruder content
// stream scan when it fails. The fallback produces only page and table
// chunks, never metadata or TOC.
func parsePDF(path, filename string) ([]types.Chunk, error) {
	chunks, err := extractPDF(path, filename)
	if err != nil {
		slog.Warn("primary pdf extraction failed, using fallback",
			"file", filename, "error", err)
		return extractPDFFallback(path, filename)
	}
	return chunks, nil
}

func extractPDF(path, filename string) (chunks []types.Chunk, err error) {
	// The reader panics on some malformed files; treat that like any other
	// extraction failure so the fallback path runs.
	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if meta := renderMetadata(reader.Trailer().Key("Info")); len(meta) > metadataMinChars {
		chunks = append(chunks, types.Chunk{
			ID:      newChunkID(),
			Content: meta,
			Metadata: types.ChunkMeta{
				Source:    filename,
				ChunkType: types.ChunkMetadata,
			},
		})
	}

	if toc := renderOutline(reader.Outline()); toc != "" {
		chunks = append(chunks, types.Chunk{
			ID:      newChunkID(),
			Content: toc,
			Metadata: types.ChunkMeta{
				Source:    filename,
				ChunkType: types.ChunkTOC,
			},
		})
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, pageChunk(text, filename, pageNum))
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			slog.Warn("pdf row extraction failed, skipping tables",
				"file", filename, "page", pageNum, "error", err)
			continue
		}
		for i, table := range detectRowTables(rows) {
			chunks = append(chunks, tableChunk(table, filename, pageNum, i))
		}
	}

	return chunks, nil
}

// renderMetadata flattens the document Info dictionary into key/value lines.
func renderMetadata(info pdf.Value) string {
	if info.Kind() != pdf.Dict {
		return ""
	}
	var b strings.Builder
	b.WriteString("Document Metadata:\n")
	for _, key := range info.Keys() {
		v := info.Key(key)
		if v.Kind() != pdf.String {
			continue
		}
		if s := strings.TrimSpace(v.RawString()); s != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, s)
		}
	}
	return b.String()
}

// renderOutline renders the document outline as indented bullet lines,
// one indent level per outline depth.
func renderOutline(outline pdf.Outline) string {
	var b strings.Builder
	var walk func(items []pdf.Outline, depth int)
	walk = func(items []pdf.Outline, depth int) {
		for _, item := range items {
			if title := strings.TrimSpace(item.Title); title != "" {
				b.WriteString(strings.Repeat("  ", depth))
				b.WriteString("• ")
				b.WriteString(title)
				b.WriteString("\n")
			}
			walk(item.Child, depth+1)
		}
	}
	walk(outline.Child, 0)
	if b.Len() == 0 {
		return ""
	}
	return "Table of Contents:\n" + b.String()
}

// rowCells splits a positioned text row into cells on large horizontal gaps.
func rowCells(texts pdf.TextHorizontal) []string {
	var cells []string
	var cell strings.Builder
	var lastEnd float64
	for i, t := range texts {
		if i > 0 && t.X-lastEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}
	return cells
}

// detectRowTables finds maximal runs of two or more consecutive rows that
// split into multiple cells, treating each run as one table.
func detectRowTables(rows pdf.Rows) [][][]string {
	var tables [][][]string
	var current [][]string
	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}
	for _, row := range rows {
		if cells := rowCells(row.Content); len(cells) >= 2 {
			current = append(current, cells)
		} else {
			flush()
		}
	}
	flush()
	return tables
}

// extractPDFFallback scans the decoded content streams directly. Coarser
// than the primary path but tolerant of files the reader rejects.
func extractPDFFallback(path, filename string) ([]types.Chunk, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	var chunks []types.Chunk
	for pageNum := 1; pageNum <= ctx.PageCount; pageNum++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNum)
		if err != nil || r == nil {
			slog.Warn("fallback page extraction failed",
				"file", filename, "page", pageNum, "error", err)
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			continue
		}

		text := decodeContentText(raw)
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, pageChunk(text, filename, pageNum))

		for i, table := range detectTextTables(text) {
			chunks = append(chunks, tableChunk(table, filename, pageNum, i))
		}
	}
	return chunks, nil
}

// decodeContentText pulls the literal strings out of a PDF content stream.
// Layout operators are ignored, so the result is reading-order text at best.
func decodeContentText(raw []byte) string {
	var b strings.Builder
	depth := 0
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if depth == 0 {
			if c == '(' {
				depth = 1
			}
			continue
		}
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '(', ')', '\\':
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var textCellSep = regexp.MustCompile(`\t| {2,}`)

// detectTextTables applies the table heuristic to plain text: runs of two or
// more lines whose content splits on tabs or multi-space gaps.
func detectTextTables(text string) [][][]string {
	var tables [][][]string
	var current [][]string
	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}
	for _, line := range strings.Split(text, "\n") {
		cells := textCellSep.Split(strings.TrimSpace(line), -1)
		if len(cells) >= 2 {
			current = append(current, cells)
		} else {
			flush()
		}
	}
	flush()
	return tables
}
