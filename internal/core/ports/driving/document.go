package driving

import (
	"context"
	"io"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// UploadRequest is a file uploaded through the API
type UploadRequest struct {
	FileName    string
	ContentType string
	Content     io.Reader
	Scope       domain.AccessScope

	// Deferred drops the file into the watched directory for the
	// background scanner instead of ingesting it in the request.
	Deferred bool
}

// URLUploadRequest asks for a web page to be ingested
type URLUploadRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// DocumentService manages document records and their vectors
type DocumentService interface {
	// Upload stores and ingests a file (admin only)
	Upload(ctx context.Context, caller *domain.AuthContext, req UploadRequest) (*domain.DocumentSummary, error)

	// UploadURL ingests a web page (admin only)
	UploadURL(ctx context.Context, caller *domain.AuthContext, req URLUploadRequest) (*domain.DocumentSummary, error)

	// List returns one page of document records
	List(ctx context.Context, query domain.DocumentListQuery) (*domain.DocumentPage, error)

	// Delete removes a record, its local file and its vectors (admin or owner)
	Delete(ctx context.Context, caller *domain.AuthContext, id int64) error
}
