package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// uploadTypes maps accepted file extensions to their content types.
var uploadTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".txt":  {"text/plain"},
	".csv":  {"text/csv", "application/csv", "text/plain"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

// documentService implements the DocumentService interface
type documentService struct {
	documents      driven.DocumentStore
	pipeline       *IngestionPipeline
	index          *VectorIndex
	uploadsDir     string
	maxUploadBytes int64
	logger         *slog.Logger
}

// DocumentServiceConfig holds configuration for the document service.
type DocumentServiceConfig struct {
	Documents      driven.DocumentStore
	Pipeline       *IngestionPipeline
	Index          *VectorIndex
	UploadsDir     string // Where synchronous uploads are kept (default: ./uploads)
	MaxUploadBytes int64  // default: 20 MiB
	Logger         *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	uploadsDir := cfg.UploadsDir
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &documentService{
		documents:      cfg.Documents,
		pipeline:       cfg.Pipeline,
		index:          cfg.Index,
		uploadsDir:     uploadsDir,
		maxUploadBytes: maxBytes,
		logger:         logger,
	}
}

// Upload stores a file and ingests it. Synchronous uploads are written to
// the uploads directory and ingested before the record is created; deferred
// uploads are dropped into the watched directory for the scanner.
func (s *documentService) Upload(ctx context.Context, caller *domain.AuthContext, req driving.UploadRequest) (*domain.DocumentSummary, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !req.Scope.Valid() {
		return nil, fmt.Errorf("%w: type must be public or private", domain.ErrInvalidInput)
	}

	name := filepath.Base(strings.TrimSpace(req.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrInvalidInput)
	}
	ext, err := checkUploadType(name, req.ContentType)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, name); err != nil {
		return nil, err
	}

	// Stored names lead with the scope so the scanner classifies them correctly.
	stored := string(req.Scope) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext

	if req.Deferred {
		return s.uploadDeferred(ctx, caller, req, name, stored)
	}

	path := filepath.Join(s.uploadsDir, stored)
	if err := s.writeFile(path, req.Content); err != nil {
		return nil, err
	}

	result := s.pipeline.IngestOne(ctx, path, req.Scope)
	if !result.OK() {
		_ = os.Remove(path)
		s.logger.Warn("upload not ingested", "file", name, "path", path, "error", result.Err)
		if errors.Is(result.Err, domain.ErrSourceUnreadable) {
			// Callers see their own file name, never the stored path.
			return nil, fmt.Errorf("%w: %s could not be read", domain.ErrSourceUnreadable, name)
		}
		return nil, result.Err
	}

	doc := &domain.Document{
		OriginalPath: name,
		DocPath:      path,
		Scope:        req.Scope,
		OwnerID:      &caller.EmployeeID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.discard(ctx, doc, result.ChunkIDs)
		return nil, err
	}

	s.logger.Info("document uploaded", "id", doc.ID, "file", name, "scope", doc.Scope, "chunks", result.Chunks)
	return summarize(doc, result.Chunks, false), nil
}

func (s *documentService) uploadDeferred(ctx context.Context, caller *domain.AuthContext, req driving.UploadRequest, name, stored string) (*domain.DocumentSummary, error) {
	dir := s.pipeline.Dir()
	// Dot-files are invisible to the scanner until renamed into place.
	tmp := filepath.Join(dir, "."+stored+".part")
	if err := s.writeFile(tmp, req.Content); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		OriginalPath: name,
		DocPath:      stored,
		Scope:        req.Scope,
		OwnerID:      &caller.EmployeeID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, filepath.Join(dir, stored)); err != nil {
		_ = os.Remove(tmp)
		_ = s.documents.Delete(ctx, doc.ID)
		return nil, fmt.Errorf("queue upload: %w", err)
	}

	s.logger.Info("document queued for ingestion", "id", doc.ID, "file", name, "scope", doc.Scope)
	return summarize(doc, 0, true), nil
}

// UploadURL fetches a web page and ingests it.
func (s *documentService) UploadURL(ctx context.Context, caller *domain.AuthContext, req driving.URLUploadRequest) (*domain.DocumentSummary, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	scope, err := domain.ParseScope(req.Type)
	if err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(req.URL)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) URL", domain.ErrInvalidInput)
	}
	if err := s.ensureUnique(ctx, raw); err != nil {
		return nil, err
	}

	result := s.pipeline.IngestOne(ctx, raw, scope)
	if !result.OK() {
		s.logger.Warn("url not ingested", "url", raw, "error", result.Err)
		return nil, result.Err
	}

	doc := &domain.Document{
		OriginalPath: raw,
		DocPath:      raw,
		Scope:        scope,
		OwnerID:      &caller.EmployeeID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.discard(ctx, doc, result.ChunkIDs)
		return nil, err
	}

	s.logger.Info("url uploaded", "id", doc.ID, "url", raw, "scope", scope, "chunks", result.Chunks)
	return summarize(doc, result.Chunks, false), nil
}

// List returns one page of document records.
func (s *documentService) List(ctx context.Context, query domain.DocumentListQuery) (*domain.DocumentPage, error) {
	if err := query.Normalize(); err != nil {
		return nil, err
	}
	docs, total, err := s.documents.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*domain.Document{}
	}
	return &domain.DocumentPage{
		Meta: domain.PageMeta{
			CurrentItem: len(docs),
			TotalItems:  total,
			Limit:       query.Limit,
			Page:        query.Page,
		},
		Documents: docs,
	}, nil
}

// Delete removes a document's vectors, its local file and its record.
// Vectors go first so a failed delete can be retried.
func (s *documentService) Delete(ctx context.Context, caller *domain.AuthContext, id int64) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return err
	}
	owner := int64(0)
	if doc.OwnerID != nil {
		owner = *doc.OwnerID
	}
	if !caller.IsAdmin() && (doc.OwnerID == nil || !caller.CanManage(owner)) {
		return domain.ErrAccessDenied
	}

	removed, err := s.index.DeleteBySource(ctx, doc.SourceRef())
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if path := s.localPath(doc); path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove document file", "path", path, "error", err)
		}
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", id, "source", doc.SourceRef(), "chunks", removed)
	return nil
}

// localPath resolves where a document's file lives, or "" for URLs.
// Bare names live in the watched directory.
func (s *documentService) localPath(doc *domain.Document) string {
	if doc.IsRemote() || doc.DocPath == "" {
		return ""
	}
	if filepath.Base(doc.DocPath) != doc.DocPath {
		return doc.DocPath
	}
	return filepath.Join(s.pipeline.Dir(), doc.DocPath)
}

func (s *documentService) ensureUnique(ctx context.Context, originalPath string) error {
	_, err := s.documents.GetByOriginalPath(ctx, originalPath)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s already exists", domain.ErrDuplicateSource, originalPath)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *documentService) writeFile(path string, content io.Reader) error {
	if content == nil {
		return fmt.Errorf("%w: file content is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(content, s.maxUploadBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxUploadBytes {
		err = fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, s.maxUploadBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// discard undoes an ingest whose record could not be saved.
func (s *documentService) discard(ctx context.Context, doc *domain.Document, ids []string) {
	if _, err := s.index.Delete(context.WithoutCancel(ctx), ids); err != nil {
		s.logger.Warn("failed to remove orphaned chunks", "source", doc.SourceRef(), "error", err)
	}
	if path := s.localPath(doc); path != "" {
		_ = os.Remove(path)
	}
}

func checkUploadType(name, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	allowed, ok := uploadTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: file type %q is not allowed", domain.ErrInvalidInput, ext)
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ct == "" || ct == "application/octet-stream" {
		return ext, nil
	}
	for _, a := range allowed {
		if ct == a {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: content type %q does not match %s", domain.ErrInvalidInput, ct, ext)
}

func requireAdmin(caller *domain.AuthContext) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if !caller.IsAdmin() {
		return domain.ErrAccessDenied
	}
	return nil
}

func summarize(doc *domain.Document, chunks int, deferred bool) *domain.DocumentSummary {
	return &domain.DocumentSummary{
		ID:           doc.ID,
		OriginalPath: doc.OriginalPath,
		DocPath:      doc.DocPath,
		Scope:        doc.Scope,
		Chunks:       chunks,
		Deferred:     deferred,
		CreatedAt:    doc.CreatedAt,
	}
}
