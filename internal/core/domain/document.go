package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ProcessedMarker prefixes the name of a file that has been ingested
const ProcessedMarker = "_"

// Document is the persisted record of one ingested file or URL
type Document struct {
	ID           int64       `json:"id"`
	OriginalPath string      `json:"original_path"` // Name as uploaded or sourced
	DocPath      string      `json:"doc_path"`      // Local file token or remote URL
	Scope        AccessScope `json:"type"`
	OwnerID      *int64      `json:"employee_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IsRemote reports whether the document was ingested from a URL
func (d *Document) IsRemote() bool {
	return IsURL(d.DocPath)
}

// SourceRef returns the reference stored on every chunk of this document
func (d *Document) SourceRef() string {
	return SourceRef(d.DocPath)
}

// IsProcessed reports whether a file name carries the processed marker
func IsProcessed(name string) bool {
	return strings.HasPrefix(name, ProcessedMarker)
}

// MarkProcessed returns the processed name for a file name
func MarkProcessed(name string) string {
	if IsProcessed(name) {
		return name
	}
	return ProcessedMarker + name
}

// SourceRef maps a doc path to the reference chunks are stored under.
// URLs are used as-is. Local paths reduce to their base name without the
// processed marker, so the reference survives the rename after ingestion.
func SourceRef(docPath string) string {
	if IsURL(docPath) {
		return docPath
	}
	return strings.TrimPrefix(filepath.Base(docPath), ProcessedMarker)
}

// IsURL reports whether ref is an http(s) URL
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// DocumentSummary is returned after a successful upload
type DocumentSummary struct {
	ID           int64       `json:"id"`
	OriginalPath string      `json:"original_path"`
	DocPath      string      `json:"doc_path"`
	Scope        AccessScope `json:"type"`
	Chunks       int         `json:"chunks"`
	Deferred     bool        `json:"deferred,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// DocumentListQuery filters, orders and pages the document list
type DocumentListQuery struct {
	Filter         string
	OrderBy        string
	OrderDirection string
	Limit          int
	Page           int
	Type           string // all, public or private
}

// Sortable document columns
var documentOrderColumns = map[string]bool{
	"id":            true,
	"original_path": true,
	"doc_path":      true,
	"type":          true,
	"created_at":    true,
}

// Normalize applies defaults and validates ordering and type
func (q *DocumentListQuery) Normalize() error {
	q.Limit, q.Page = normalizePaging(q.Limit, q.Page)

	if q.OrderBy == "" {
		q.OrderBy = "created_at"
	}
	if !documentOrderColumns[q.OrderBy] {
		return fmt.Errorf("%w: cannot order by %q", ErrInvalidInput, q.OrderBy)
	}

	switch strings.ToLower(q.OrderDirection) {
	case "", "desc":
		q.OrderDirection = "desc"
	case "asc":
		q.OrderDirection = "asc"
	default:
		return fmt.Errorf("%w: order_direction must be asc or desc", ErrInvalidInput)
	}

	switch strings.ToLower(q.Type) {
	case "", "all":
		q.Type = "all"
	case string(ScopePublic), string(ScopePrivate):
		q.Type = strings.ToLower(q.Type)
	default:
		return fmt.Errorf("%w: type must be all, public or private", ErrInvalidInput)
	}
	return nil
}

// Offset returns the row offset of the requested page
func (q DocumentListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageMeta describes one page of a list response
type PageMeta struct {
	CurrentItem int `json:"current_item"`
	TotalItems  int `json:"total_items"`
	Limit       int `json:"limit"`
	Page        int `json:"page"`
}

// DocumentPage is one page of documents
type DocumentPage struct {
	Meta      PageMeta    `json:"meta"`
	Documents []*Document `json:"documents"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

func normalizePaging(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}
