package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// VectorStore is one nearest-neighbour index. Each access scope gets its own
// instance, so a query against one store can never see another's entries.
type VectorStore interface {
	// Scope returns the scope this store serves
	Scope() domain.AccessScope

	// Put stores a chunk and its embedding under chunk.ID.
	// Putting an existing ID replaces only that entry.
	Put(ctx context.Context, chunk *domain.Chunk, embedding []float32) error

	// Search returns up to k chunks closest to the embedding, best first.
	// An empty store returns an empty slice and no error.
	Search(ctx context.Context, embedding []float32, k int) ([]*domain.SearchHit, error)

	// DeleteBySource removes every chunk stored under the source reference
	// and returns how many were removed. Unknown sources remove nothing.
	DeleteBySource(ctx context.Context, source string) (int, error)

	// Delete removes the chunks with the given IDs. Unknown IDs are skipped.
	Delete(ctx context.Context, ids []string) (int, error)

	// DeleteStale removes the chunks of a source whose IDs are not in keep
	DeleteStale(ctx context.Context, source string, keep []string) (int, error)

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}
