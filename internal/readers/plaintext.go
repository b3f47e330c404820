package readers

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SourceReader = (*PlainTextReader)(nil)

// PlainTextReader reads any file not claimed by another reader as UTF-8 text.
type PlainTextReader struct{}

func (p *PlainTextReader) Kind() domain.SourceKind {
	return domain.SourcePlainText
}

func (p *PlainTextReader) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	if !utf8.Valid(data) {
		return nil, unreadable(ref, errors.New("not valid UTF-8 text"))
	}

	content := normaliseNewlines(string(data))
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	return []domain.Segment{{
		Source:   domain.SourceRef(ref),
		Content:  content,
		Metadata: map[string]string{"format": domain.SourcePlainText.String()},
	}}, nil
}

func normaliseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
