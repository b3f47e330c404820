package readers

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SourceReader = (*DocxReader)(nil)

// DocxReader extracts paragraphs from word/document.xml.
type DocxReader struct{}

func (d *DocxReader) Kind() domain.SourceKind {
	return domain.SourceDocx
}

func (d *DocxReader) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	archive, err := zip.OpenReader(ref)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	defer archive.Close()

	var body []byte
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, unreadable(ref, err)
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, unreadable(ref, err)
		}
		break
	}
	if body == nil {
		return nil, unreadable(ref, errors.New("word/document.xml missing"))
	}

	paragraphs, err := parseParagraphs(body)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	if len(paragraphs) == 0 {
		return nil, nil
	}

	// Paragraphs are joined with blank lines so the chunker breaks on them first.
	return []domain.Segment{{
		Source:  domain.SourceRef(ref),
		Content: strings.Join(paragraphs, "\n\n"),
		Metadata: map[string]string{
			"format":     domain.SourceDocx.String(),
			"paragraphs": strconv.Itoa(len(paragraphs)),
		},
	}}, nil
}

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func parseParagraphs(content []byte) ([]string, error) {
	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	var paragraphs []string
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, run := range para.Runs {
			for _, text := range run.Text {
				b.WriteString(text.Content)
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs, nil
}
