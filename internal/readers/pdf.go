package readers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SourceReader = (*PDFReader)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// PDFReader extracts text per page with pdftotext.
type PDFReader struct {
	runner driven.CommandRunner
}

// NewPDFReader creates a PDF reader that shells out through runner.
func NewPDFReader(runner driven.CommandRunner) *PDFReader {
	return &PDFReader{runner: runner}
}

func (p *PDFReader) Kind() domain.SourceKind {
	return domain.SourcePdf
}

func (p *PDFReader) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	if _, err := os.Stat(ref); err != nil {
		return nil, unreadable(ref, err)
	}

	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", ref, "-")
	if err != nil {
		return nil, unreadable(ref, err)
	}

	// pdftotext ends every page with a form feed.
	pages := strings.Split(normaliseNewlines(string(out)), "\f")
	source := domain.SourceRef(ref)

	var segments []domain.Segment
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Source:  source,
			Content: page,
			Metadata: map[string]string{
				"format": domain.SourcePdf.String(),
				"page":   strconv.Itoa(i),
			},
		})
	}
	return segments, nil
}
