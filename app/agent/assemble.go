package agent

import (
	"fmt"
	"strings"

	"assistant/types"
)

const historyWindow = 5

// Assembly is the prompt context built from retrieved evidence, recent
// conversation turns, and the citation block appended for the model.
type Assembly struct {
	Evidence  string
	History   string
	Citations string
}

// Assemble renders document chunks, online papers, and chat history into the
// textual context handed to the answer generator.
func Assemble(chunks []types.Chunk, papers []types.Paper, history []types.Message) Assembly {
	var asm Assembly
	var parts []string
	if s := formatDocuments(chunks); s != "" {
		parts = append(parts, s)
	}
	if s := formatPapers(papers); s != "" {
		parts = append(parts, s)
	}
	asm.Evidence = strings.Join(parts, "\n\n")
	asm.History = formatHistory(history)
	asm.Citations = formatCitations(papers)
	return asm
}

// HasEvidence reports whether any retrieved material made it into the
// assembly.
func (a Assembly) HasEvidence() bool {
	return a.Evidence != ""
}

// Context returns the full prompt context in evidence, history, citation
// order.
func (a Assembly) Context() string {
	return a.Evidence + a.History + a.Citations
}

// Blocks each end in a newline and are joined with one more, leaving a blank
// line between consecutive blocks.
func formatDocuments(chunks []types.Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		page := ""
		if c.Metadata.Page > 0 {
			page = fmt.Sprintf(" (Page %d)", c.Metadata.Page)
		}
		blocks = append(blocks, fmt.Sprintf("[Document %d: %s%s]\n%s\n", i+1, c.Metadata.Source, page, c.Content))
	}
	return strings.Join(blocks, "\n")
}

func formatPapers(papers []types.Paper) string {
	blocks := make([]string, 0, len(papers))
	for i, p := range papers {
		blocks = append(blocks, fmt.Sprintf("[Paper %d: %s]\nAuthors: %s\nSource: %s\nURL: %s\nSummary: %s\n",
			i+1, p.Title, strings.Join(p.Authors, ", "), p.Source, p.URL, p.Summary))
	}
	return strings.Join(blocks, "\n")
}

func formatHistory(history []types.Message) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	b.WriteString("\n\nPrevious conversation:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", capitalize(m.Role), m.Content)
	}
	return b.String()
}

func formatCitations(papers []types.Paper) string {
	if len(papers) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSource Information for Citation:\n")
	for i, p := range papers {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, p.Title, p.URL)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
