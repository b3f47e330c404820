// Package readers turns files and URLs into raw text segments.
package readers

import (
	"context"
	"fmt"
	"sync"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.DocumentReader = (*Registry)(nil)

// Registry dispatches a source to the reader for its kind.
// The kind is resolved once with domain.ClassifySource.
type Registry struct {
	mu      sync.RWMutex
	readers map[domain.SourceKind]driven.SourceReader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[domain.SourceKind]driven.SourceReader),
	}
}

// Register adds a reader, replacing any reader for the same kind.
func (r *Registry) Register(reader driven.SourceReader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[reader.Kind()] = reader
}

// Get returns the reader for a kind, or nil.
func (r *Registry) Get(kind domain.SourceKind) driven.SourceReader {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readers[kind]
}

// Missing lists kinds with no registered reader.
func (r *Registry) Missing() []domain.SourceKind {
	var missing []domain.SourceKind
	for _, kind := range domain.AllSourceKinds() {
		if r.Get(kind) == nil {
			missing = append(missing, kind)
		}
	}
	return missing
}

// Read classifies ref and reads it with the matching reader.
// Every failure wraps domain.ErrSourceUnreadable.
func (r *Registry) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	kind := domain.ClassifySource(ref)

	switch kind {
	case domain.SourcePlainText, domain.SourcePdf, domain.SourceDocx,
		domain.SourceCsv, domain.SourceSpreadsheet, domain.SourceWebPage:
	default:
		return nil, unreadable(ref, fmt.Errorf("unsupported kind %s", kind))
	}

	reader := r.Get(kind)
	if reader == nil {
		return nil, unreadable(ref, fmt.Errorf("no reader registered for %s", kind))
	}
	return reader.Read(ctx, ref)
}

// Config configures the default readers.
type Config struct {
	Web    WebConfig
	Runner driven.CommandRunner // Runs pdftotext; nil uses ExecRunner
}

// DefaultRegistry creates a registry with a reader for every source kind.
func DefaultRegistry(cfg Config) *Registry {
	runner := cfg.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	r := NewRegistry()
	r.Register(&PlainTextReader{})
	r.Register(NewPDFReader(runner))
	r.Register(&DocxReader{})
	r.Register(&CSVReader{})
	r.Register(&SpreadsheetReader{})
	r.Register(NewWebReader(cfg.Web))
	return r
}

func unreadable(ref string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrSourceUnreadable, ref, err)
}
