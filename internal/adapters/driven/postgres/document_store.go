package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, owner_id, original_path, doc_path, type, created_at`

// Create inserts a document record
func (s *DocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (owner_id, original_path, doc_path, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		toNull(doc.OwnerID),
		doc.OriginalPath,
		doc.DocPath,
		string(doc.Scope),
	).Scan(&doc.ID, &doc.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSource, doc.OriginalPath)
	}
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id int64) (*domain.Document, error) {
	return s.getBy(ctx, "id", id)
}

// GetByOriginalPath retrieves a document by its uploaded name
func (s *DocumentStore) GetByOriginalPath(ctx context.Context, originalPath string) (*domain.Document, error) {
	return s.getBy(ctx, "original_path", originalPath)
}

// GetByDocPath retrieves a document by its storage reference
func (s *DocumentStore) GetByDocPath(ctx context.Context, docPath string) (*domain.Document, error) {
	return s.getBy(ctx, "doc_path", docPath)
}

func (s *DocumentStore) getBy(ctx context.Context, column string, value any) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + column + ` = $1`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, notFound(err)
	}
	return doc, nil
}

// List returns one page of documents and the total number of matches
func (s *DocumentStore) List(ctx context.Context, q domain.DocumentListQuery) ([]*domain.Document, int, error) {
	if err := q.Normalize(); err != nil {
		return nil, 0, err
	}
	where, args := documentFilter(q)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// OrderBy and OrderDirection are whitelisted by Normalize
	query := fmt.Sprintf(`SELECT %s FROM documents%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		documentColumns, where, q.OrderBy, q.OrderDirection, q.OrderDirection, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0, q.Limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// documentFilter builds the WHERE clause for a normalized list query.
// The filter matches either path case-insensitively, or the exact ID.
func documentFilter(q domain.DocumentListQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.Type != "all" {
		args = append(args, q.Type)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter := strings.TrimSpace(q.Filter); filter != "" {
		args = append(args, "%"+escapeLike(filter)+"%")
		n := len(args)
		clause := fmt.Sprintf("(original_path ILIKE $%d OR doc_path ILIKE $%d", n, n)
		if id, err := strconv.ParseInt(filter, 10, 64); err == nil {
			args = append(args, id)
			clause += fmt.Sprintf(" OR id = $%d", len(args))
		}
		clauses = append(clauses, clause+")")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Delete deletes a document record
func (s *DocumentStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

// MarkProcessed moves a record from oldPath to newPath and runs commit
// before the transaction commits, so the rename and the row change land
// together or not at all.
func (s *DocumentStore) MarkProcessed(ctx context.Context, oldPath, newPath string, scope domain.AccessScope, commit func() error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var replaced int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM documents WHERE doc_path = $1 FOR UPDATE`, newPath,
		).Scan(&replaced)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err == nil {
			// A record already holds newPath; the file replaced that one.
			if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE doc_path = $1`, oldPath); err != nil {
				return err
			}
			return commit()
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE documents SET doc_path = $2 WHERE doc_path = $1`, oldPath, newPath)
		if err != nil {
			return err
		}
		if err := rowsAffected(result); errors.Is(err, domain.ErrNotFound) {
			if err := s.createForFile(ctx, tx, oldPath, newPath, scope); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return commit()
	})
}

// createForFile records a file that was dropped straight into the watched
// directory. A name already taken by an upload keeps its record and fails
// the move with domain.ErrDuplicateSource, so the file is not renamed.
func (s *DocumentStore) createForFile(ctx context.Context, tx *sql.Tx, name, processed string, scope domain.AccessScope) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO documents (original_path, doc_path, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (original_path) DO NOTHING
	`, name, processed, string(scope))
	if err != nil {
		return err
	}
	if err := rowsAffected(result); errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateSource, name)
	} else if err != nil {
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var ownerID sql.Null[int64]
	var scope string
	if err := row.Scan(&doc.ID, &ownerID, &doc.OriginalPath, &doc.DocPath, &scope, &doc.CreatedAt); err != nil {
		return nil, err
	}
	doc.OwnerID = fromNull(ownerID)
	doc.Scope = domain.AccessScope(scope)
	return &doc, nil
}
