package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// PrivatePrefix marks a dropped file as private content.
const PrivatePrefix = "private"

// IngestionPipeline reads, chunks and indexes sources. It also drains the
// watched directory, renaming each file once its chunks are stored.
type IngestionPipeline struct {
	reader    driven.DocumentReader
	chunker   driven.Chunker
	index     *VectorIndex
	documents driven.DocumentStore
	logger    *slog.Logger

	dir          string
	fileTimeout  time.Duration
	scanTimeout  time.Duration
	maxFiles     int
	maxListEntry int

	// scanning serialises scans within this process
	scanning sync.Mutex
}

// IngestionConfig holds configuration for the ingestion pipeline.
type IngestionConfig struct {
	Reader      driven.DocumentReader
	Chunker     driven.Chunker
	Index       *VectorIndex
	Documents   driven.DocumentStore
	Logger      *slog.Logger
	Dir         string        // Watched directory (default: ./documents)
	FileTimeout time.Duration // Budget per file (default: 2m)
	ScanTimeout time.Duration // Budget per scan (default: 5m)
	MaxFiles    int           // Pending files handled per scan (default: 100)
	MaxEntries  int           // Directory entries examined per scan (default: 10000)
}

// NewIngestionPipeline creates an ingestion pipeline.
func NewIngestionPipeline(cfg IngestionConfig) *IngestionPipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "./documents"
	}
	fileTimeout := cfg.FileTimeout
	if fileTimeout <= 0 {
		fileTimeout = 2 * time.Minute
	}
	scanTimeout := cfg.ScanTimeout
	if scanTimeout <= 0 {
		scanTimeout = 5 * time.Minute
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 100
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	return &IngestionPipeline{
		reader:       cfg.Reader,
		chunker:      cfg.Chunker,
		index:        cfg.Index,
		documents:    cfg.Documents,
		logger:       logger,
		dir:          dir,
		fileTimeout:  fileTimeout,
		scanTimeout:  scanTimeout,
		maxFiles:     maxFiles,
		maxListEntry: maxEntries,
	}
}

// Dir returns the watched directory.
func (p *IngestionPipeline) Dir() string {
	return p.dir
}

// IngestOne reads source, chunks it and writes the chunks to every index the
// scope targets: private content to the private index, public content to
// both. It never panics or returns an error; the outcome is in the result.
// On failure, the chunks this call wrote are removed; entries from earlier
// ingests of the same source are left alone.
func (p *IngestionPipeline) IngestOne(ctx context.Context, source string, scope domain.AccessScope) (result *domain.IngestResult) {
	start := time.Now()
	ref := domain.SourceRef(source)
	result = &domain.IngestResult{Source: ref, Scope: scope}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("ingest %s: panic: %v", ref, r)
		}
		result.Duration = time.Since(start)
		if !result.OK() {
			p.discard(ctx, ref, result.ChunkIDs)
			result.ChunkIDs = nil
		}
	}()

	if !scope.Valid() {
		result.Err = fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, scope)
		return result
	}

	segments, err := p.reader.Read(ctx, source)
	if err != nil {
		result.Err = err
		return result
	}

	chunks := p.chunker.Split(segments)
	if len(chunks) == 0 {
		result.Err = fmt.Errorf("%w: %s: no text found", domain.ErrSourceUnreadable, ref)
		return result
	}
	for _, c := range chunks {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		c.Metadata["visibility"] = string(scope)
	}
	result.Chunks = len(chunks)

	for _, target := range scope.IngestTargets() {
		report, err := p.index.Upsert(ctx, target, chunks)
		if err != nil {
			result.Err = fmt.Errorf("upsert %s index: %w", target, err)
			return result
		}
		result.ChunkIDs = append(result.ChunkIDs, report.Stored...)
		result.FailedChunks = append(result.FailedChunks, report.Failed...)
	}

	if len(result.FailedChunks) > 0 {
		result.Err = fmt.Errorf("%w: %d chunk writes failed for %s",
			domain.ErrServiceUnavailable, len(result.FailedChunks), ref)
		return result
	}

	p.logger.Info("ingested source",
		"source", ref,
		"scope", scope,
		"chunks", result.Chunks,
		"duration", time.Since(start),
	)
	return result
}

// discard removes chunks by ID. Partial writes must not outlive a failed
// ingest, even past a cancelled ctx.
func (p *IngestionPipeline) discard(ctx context.Context, ref string, ids []string) {
	if len(ids) == 0 {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if _, err := p.index.Delete(cleanupCtx, ids); err != nil {
		p.logger.Warn("failed to remove partial chunks", "source", ref, "count", len(ids), "error", err)
	}
}

// ScopeForName classifies a dropped file by its name.
func ScopeForName(name string) domain.AccessScope {
	if strings.HasPrefix(strings.ToLower(name), PrivatePrefix) {
		return domain.ScopePrivate
	}
	return domain.ScopePublic
}

// ScanAndIngestPending ingests every file in the watched directory that does
// not carry the processed marker. A file is renamed, and its record updated,
// only after all of its chunks are stored; failed files stay in place for
// the next scan. Only one scan runs at a time; an overlapping call returns
// domain.ErrLockNotAcquired.
func (p *IngestionPipeline) ScanAndIngestPending(ctx context.Context) (*domain.ScanReport, error) {
	if !p.scanning.TryLock() {
		return nil, domain.ErrLockNotAcquired
	}
	defer p.scanning.Unlock()

	report := &domain.ScanReport{StartedAt: time.Now()}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	ctx, cancel := context.WithTimeout(ctx, p.scanTimeout)
	defer cancel()

	pending, truncated, err := p.listPending()
	if err != nil {
		return report, err
	}
	report.Truncated = truncated

	for i, name := range pending {
		if ctx.Err() != nil {
			p.logger.Warn("scan budget exhausted", "remaining", len(pending)-i)
			report.Truncated = true
			break
		}
		report.Files = append(report.Files, p.ingestFile(ctx, name))
	}

	if len(report.Files) > 0 {
		p.logger.Info("scan complete",
			"files", len(report.Files),
			"ingested", report.Ingested(),
			"chunks", report.Chunks(),
		)
	}
	return report, nil
}

// listPending returns unprocessed regular files, sorted by name. The listing
// is bounded so a huge directory cannot stall a scan.
func (p *IngestionPipeline) listPending() ([]string, bool, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create watched dir: %w", err)
	}
	f, err := os.Open(p.dir)
	if err != nil {
		return nil, false, fmt.Errorf("open watched dir: %w", err)
	}
	defer f.Close()

	var pending []string
	examined := 0
	truncated := false
	for {
		entries, err := f.ReadDir(256)
		for _, entry := range entries {
			examined++
			name := entry.Name()
			if !entry.Type().IsRegular() || domain.IsProcessed(name) || strings.HasPrefix(name, ".") {
				continue
			}
			pending = append(pending, name)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("list watched dir: %w", err)
		}
		if examined >= p.maxListEntry {
			truncated = true
			break
		}
	}

	sort.Strings(pending)
	if len(pending) > p.maxFiles {
		pending = pending[:p.maxFiles]
		truncated = true
	}
	return pending, truncated, nil
}

func (p *IngestionPipeline) ingestFile(ctx context.Context, name string) domain.FileOutcome {
	outcome := domain.FileOutcome{Name: name, State: domain.FileDiscovered}
	fail := func(err error) domain.FileOutcome {
		outcome.State = domain.FileFailed
		outcome.Error = err.Error()
		p.logger.Warn("file not ingested, will retry", "file", name, "error", err)
		return outcome
	}

	ctx, cancel := context.WithTimeout(ctx, p.fileTimeout)
	defer cancel()

	path := filepath.Join(p.dir, name)
	scope := ScopeForName(name)
	processed := domain.MarkProcessed(name)
	if err := p.checkName(ctx, name, processed); err != nil {
		return fail(err)
	}
	outcome.State = domain.FileIngesting

	result := p.IngestOne(ctx, path, scope)
	if !result.OK() {
		return fail(result.Err)
	}

	err := p.documents.MarkProcessed(ctx, name, processed, scope, func() error {
		return os.Rename(path, filepath.Join(p.dir, processed))
	})
	if err != nil {
		p.discard(ctx, result.Source, result.ChunkIDs)
		return fail(fmt.Errorf("mark processed: %w", err))
	}

	// Earlier chunks of the source, from a replaced file or from a run that
	// stopped before its rename, are retired only once the new ones are in.
	if _, err := p.index.DeleteStale(ctx, result.Source, result.ChunkIDs); err != nil {
		p.logger.Warn("failed to clear previous chunks", "file", name, "error", err)
	}

	outcome.State = domain.FileIngested
	outcome.Chunks = result.Chunks
	return outcome
}

// checkName refuses a dropped file whose name belongs to an upload. Only a
// file with no record of its own, under either name, is looked up that way.
func (p *IngestionPipeline) checkName(ctx context.Context, name, processed string) error {
	for _, docPath := range []string{name, processed} {
		_, err := p.documents.GetByDocPath(ctx, docPath)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("look up %s: %w", docPath, err)
		}
	}

	doc, err := p.documents.GetByOriginalPath(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("look up %s: %w", name, err)
	}
	return fmt.Errorf("%w: %s is already taken by document %d", domain.ErrDuplicateSource, name, doc.ID)
}
