package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/runtime"
)

// VectorIndex fronts one VectorStore per access scope. Scopes never share a
// store, so a search can only ever see the index it names.
type VectorIndex struct {
	stores    map[domain.AccessScope]driven.VectorStore
	services  *runtime.Services
	logger    *slog.Logger
	timeout   time.Duration
	batchSize int
}

// VectorIndexConfig holds configuration for VectorIndex.
type VectorIndexConfig struct {
	Stores    []driven.VectorStore // Exactly one per scope
	Services  *runtime.Services
	Logger    *slog.Logger
	Timeout   time.Duration // Per embedding call (default: 30s)
	BatchSize int           // Texts per embedding call (default: 32)
}

// NewVectorIndex creates a vector index. It fails unless every scope has
// exactly one store.
func NewVectorIndex(cfg VectorIndexConfig) (*VectorIndex, error) {
	stores := make(map[domain.AccessScope]driven.VectorStore, len(cfg.Stores))
	for _, store := range cfg.Stores {
		scope := store.Scope()
		if !scope.Valid() {
			return nil, fmt.Errorf("%w: store has unknown scope %q", domain.ErrInvalidInput, scope)
		}
		if _, dup := stores[scope]; dup {
			return nil, fmt.Errorf("%w: two stores for scope %s", domain.ErrInvalidInput, scope)
		}
		stores[scope] = store
	}
	for _, scope := range domain.AllScopes() {
		if _, ok := stores[scope]; !ok {
			return nil, fmt.Errorf("%w: no store for scope %s", domain.ErrInvalidInput, scope)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	return &VectorIndex{
		stores:    stores,
		services:  cfg.Services,
		logger:    logger,
		timeout:   timeout,
		batchSize: batchSize,
	}, nil
}

func (v *VectorIndex) store(scope domain.AccessScope) (driven.VectorStore, error) {
	store, ok := v.stores[scope]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
	}
	return store, nil
}

// Upsert embeds chunks and stores each under a fresh ID in the scope's index.
// Chunks are stored independently: a failed chunk is listed in the report
// and never affects entries already stored. The returned error is reserved
// for failures that stop the whole call.
func (v *VectorIndex) Upsert(ctx context.Context, scope domain.AccessScope, chunks []*domain.Chunk) (*domain.UpsertReport, error) {
	store, err := v.store(scope)
	if err != nil {
		return nil, err
	}
	embedder, err := v.services.Embedding()
	if err != nil {
		return nil, err
	}

	report := &domain.UpsertReport{Scope: scope}
	for start := 0; start < len(chunks); start += v.batchSize {
		end := start + v.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		embeddings, err := v.embed(ctx, embedder, batch)
		if err != nil {
			v.logger.Warn("embedding batch failed",
				"scope", scope,
				"chunks", len(batch),
				"error", err,
			)
			for _, c := range batch {
				report.Failed = append(report.Failed, chunkLabel(c))
			}
			continue
		}

		for i, c := range batch {
			entry := withScope(c, scope)
			entry.ID = uuid.NewString()
			if err := store.Put(ctx, entry, embeddings[i]); err != nil {
				v.logger.Warn("failed to store chunk",
					"scope", scope,
					"source", c.Source,
					"position", c.Position,
					"error", err,
				)
				report.Failed = append(report.Failed, chunkLabel(c))
				continue
			}
			report.Stored = append(report.Stored, entry.ID)
		}
	}
	return report, nil
}

func (v *VectorIndex) embed(ctx context.Context, embedder driven.EmbeddingService, batch []*domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	embeddings, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(embeddings))
	}
	return embeddings, nil
}

// Search returns up to k chunks nearest to the query from exactly one index.
func (v *VectorIndex) Search(ctx context.Context, scope domain.AccessScope, query string, k int) ([]*domain.SearchHit, error) {
	store, err := v.store(scope)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = domain.DefaultSearchK
	}
	embedder, err := v.services.Embedding()
	if err != nil {
		return nil, err
	}

	embedCtx, cancel := context.WithTimeout(ctx, v.timeout)
	embedding, err := embedder.EmbedQuery(embedCtx, query)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	hits, err := store.Search(searchCtx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search %s index: %w", scope, err)
	}
	if hits == nil {
		hits = []*domain.SearchHit{}
	}
	return hits, nil
}

// DeleteBySource removes a source's chunks from every index. Unknown
// sources remove nothing and are not an error.
func (v *VectorIndex) DeleteBySource(ctx context.Context, source string) (int, error) {
	total := 0
	var errs []error
	for _, scope := range domain.AllScopes() {
		n, err := v.stores[scope].DeleteBySource(ctx, source)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete from %s index: %w", scope, err))
			continue
		}
		total += n
	}
	if total > 0 {
		v.logger.Info("deleted chunks", "source", source, "count", total)
	}
	return total, errors.Join(errs...)
}

// Delete removes chunks by ID from every index.
func (v *VectorIndex) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	total := 0
	var errs []error
	for _, scope := range domain.AllScopes() {
		n, err := v.stores[scope].Delete(ctx, ids)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete from %s index: %w", scope, err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// DeleteStale removes a source's chunks that are not listed in keep, from
// every index. It retires an earlier ingest once a newer one is stored.
func (v *VectorIndex) DeleteStale(ctx context.Context, source string, keep []string) (int, error) {
	total := 0
	var errs []error
	for _, scope := range domain.AllScopes() {
		n, err := v.stores[scope].DeleteStale(ctx, source, keep)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete from %s index: %w", scope, err))
			continue
		}
		total += n
	}
	if total > 0 {
		v.logger.Info("deleted stale chunks", "source", source, "count", total)
	}
	return total, errors.Join(errs...)
}

// Count returns the number of entries in a scope's index.
func (v *VectorIndex) Count(ctx context.Context, scope domain.AccessScope) (int, error) {
	store, err := v.store(scope)
	if err != nil {
		return 0, err
	}
	return store.Count(ctx)
}

// Ping checks every index backend.
func (v *VectorIndex) Ping(ctx context.Context) error {
	for _, scope := range domain.AllScopes() {
		if err := v.stores[scope].Ping(ctx); err != nil {
			return fmt.Errorf("%s index: %w", scope, err)
		}
	}
	return nil
}

// withScope copies a chunk and tags it with the index it is written to.
// The chunk's own "visibility" tag, set at ingestion, is left alone.
func withScope(c *domain.Chunk, scope domain.AccessScope) *domain.Chunk {
	out := *c
	out.Metadata = make(map[string]string, len(c.Metadata)+1)
	for k, val := range c.Metadata {
		out.Metadata[k] = val
	}
	out.Metadata["index"] = string(scope)
	return &out
}

func chunkLabel(c *domain.Chunk) string {
	return fmt.Sprintf("%s#%s:%d", c.Source, c.Metadata["segment"], c.Position)
}
