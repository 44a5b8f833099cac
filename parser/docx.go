package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"

	"assistant/types"
)

// documentXML mirrors the paragraph/run/text nesting of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func parseDOCX(path, filename string) ([]types.Chunk, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	paragraphs, err := docxParagraphText(&archive.Reader)
	if err != nil {
		return nil, err
	}
	return groupParagraphs(paragraphs, filename), nil
}

// docxParagraphText extracts one string per paragraph of word/document.xml.
func docxParagraphText(reader *zip.Reader) ([]string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
		for _, para := range doc.Body.Paragraphs {
			var text string
			for _, run := range para.Runs {
				for _, t := range run.Text {
					text += t.Content
				}
			}
			paragraphs = append(paragraphs, text)
		}
		return paragraphs, nil
	}
	return nil, fmt.Errorf("parse docx: no word/document.xml entry")
}
