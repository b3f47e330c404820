package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// SourceReader turns one kind of source into raw text segments.
// Every failure wraps domain.ErrSourceUnreadable.
type SourceReader interface {
	// Kind returns the source kind this reader handles
	Kind() domain.SourceKind

	// Read fetches or opens ref and returns its segments in order
	Read(ctx context.Context, ref string) ([]domain.Segment, error)
}

// CommandRunner runs an external program and returns its stdout
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DocumentReader dispatches any path or URL to the reader for its kind
type DocumentReader interface {
	Read(ctx context.Context, ref string) ([]domain.Segment, error)
}

// Chunker splits segments into bounded, overlapping chunks
type Chunker interface {
	Split(segments []domain.Segment) []*domain.Chunk
}
