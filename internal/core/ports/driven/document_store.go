package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// DocumentStore handles document record persistence
type DocumentStore interface {
	// Create inserts a record and sets its ID and CreatedAt
	Create(ctx context.Context, doc *domain.Document) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// GetByOriginalPath retrieves a record by its uploaded name
	GetByOriginalPath(ctx context.Context, originalPath string) (*domain.Document, error)

	// GetByDocPath retrieves a record by its storage reference
	GetByDocPath(ctx context.Context, docPath string) (*domain.Document, error)

	// List returns one page of records and the total number of matches
	List(ctx context.Context, query domain.DocumentListQuery) ([]*domain.Document, int, error)

	// Delete removes a record
	Delete(ctx context.Context, id int64) error

	// MarkProcessed moves a record's DocPath from oldPath to newPath in one
	// transaction. commit runs inside that transaction after the row update;
	// if it fails the update is rolled back. When no record matches oldPath a
	// record is created for the file with the given scope, unless a record
	// already holds newPath (the file replaced an earlier one of the same name).
	MarkProcessed(ctx context.Context, oldPath, newPath string, scope domain.AccessScope, commit func() error) error
}
