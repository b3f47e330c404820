package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore implements driven.VectorStore on a pgvector table.
// Each scope has its own table, so a store can only ever see its own rows.
type VectorStore struct {
	db    *DB
	scope domain.AccessScope
	table string
}

// NewVectorStore creates the store for scope
func NewVectorStore(db *DB, scope domain.AccessScope) (*VectorStore, error) {
	table, err := chunkTable(scope)
	if err != nil {
		return nil, err
	}
	return &VectorStore{db: db, scope: scope, table: table}, nil
}

// NewVectorStores creates one store per scope
func NewVectorStores(db *DB) []driven.VectorStore {
	stores := make([]driven.VectorStore, 0, 2)
	for _, scope := range domain.AllScopes() {
		store, _ := NewVectorStore(db, scope)
		stores = append(stores, store)
	}
	return stores
}

// chunkTable maps a scope to its table. Table names never come from input.
func chunkTable(scope domain.AccessScope) (string, error) {
	switch scope {
	case domain.ScopePublic:
		return "public_chunks", nil
	case domain.ScopePrivate:
		return "private_chunks", nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
	}
}

// Scope returns the scope this store serves
func (s *VectorStore) Scope() domain.AccessScope {
	return s.scope
}

// Put stores a chunk and its embedding, replacing any entry with the same ID
func (s *VectorStore) Put(ctx context.Context, chunk *domain.Chunk, embedding []float32) error {
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if chunk.Metadata == nil {
		metadata = []byte("{}")
	}

	query := `
		INSERT INTO ` + s.table + ` (id, source, content, position, start_offset, end_offset, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			position = EXCLUDED.position,
			start_offset = EXCLUDED.start_offset,
			end_offset = EXCLUDED.end_offset,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`

	_, err = s.db.ExecContext(ctx, query,
		chunk.ID,
		chunk.Source,
		chunk.Content,
		chunk.Position,
		chunk.StartOffset,
		chunk.EndOffset,
		metadata,
		pgvector.NewVector(embedding),
	)
	return err
}

// Search returns up to k chunks by cosine similarity, best first
func (s *VectorStore) Search(ctx context.Context, embedding []float32, k int) ([]*domain.SearchHit, error) {
	hits := []*domain.SearchHit{}
	if k <= 0 {
		return hits, nil
	}

	query := `
		SELECT id, source, content, position, start_offset, end_offset, metadata,
			1 - (embedding <=> $1) AS score
		FROM ` + s.table + `
		ORDER BY embedding <=> $1, id
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var chunk domain.Chunk
		var metadata []byte
		var score float64
		err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Content,
			&chunk.Position,
			&chunk.StartOffset,
			&chunk.EndOffset,
			&metadata,
			&score,
		)
		if err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %s: %w", chunk.ID, err)
			}
		}
		hits = append(hits, &domain.SearchHit{Chunk: &chunk, Scope: s.scope, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// DeleteBySource removes every chunk of a source
func (s *VectorStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE source = $1`, source)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// Delete removes the chunks with the given IDs
func (s *VectorStore) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// DeleteStale removes the chunks of source that are not listed in keep
func (s *VectorStore) DeleteStale(ctx context.Context, source string, keep []string) (int, error) {
	query := `DELETE FROM ` + s.table + ` WHERE source = $1 AND NOT (id = ANY($2::uuid[]))`
	result, err := s.db.ExecContext(ctx, query, source, pq.Array(keep))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// Count returns the number of stored chunks
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+s.table).Scan(&n)
	return n, err
}

// Ping checks the database is reachable
func (s *VectorStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
