package domain

import (
	"path/filepath"
	"strings"
)

// SourceKind is the closed set of formats the document reader understands
type SourceKind int

const (
	SourcePlainText SourceKind = iota
	SourcePdf
	SourceDocx
	SourceCsv
	SourceSpreadsheet
	SourceWebPage
)

// AllSourceKinds lists every kind, used to check reader coverage
func AllSourceKinds() []SourceKind {
	return []SourceKind{SourcePlainText, SourcePdf, SourceDocx, SourceCsv, SourceSpreadsheet, SourceWebPage}
}

func (k SourceKind) String() string {
	switch k {
	case SourcePlainText:
		return "plain_text"
	case SourcePdf:
		return "pdf"
	case SourceDocx:
		return "docx"
	case SourceCsv:
		return "csv"
	case SourceSpreadsheet:
		return "spreadsheet"
	case SourceWebPage:
		return "web_page"
	default:
		return "unknown"
	}
}

// ClassifySource resolves the kind of a path or URL once, up front
func ClassifySource(ref string) SourceKind {
	if IsURL(ref) {
		return SourceWebPage
	}
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".pdf":
		return SourcePdf
	case ".docx":
		return SourceDocx
	case ".csv":
		return SourceCsv
	case ".xlsx":
		return SourceSpreadsheet
	default:
		return SourcePlainText
	}
}

// Segment is a raw span of text produced by a reader
type Segment struct {
	Source   string            `json:"source"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is a bounded span of a segment, the unit of embedding and retrieval
type Chunk struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	Content     string            `json:"content"`
	Position    int               `json:"position"`     // Index within its segment
	StartOffset int               `json:"start_offset"` // Rune offset in the segment
	EndOffset   int               `json:"end_offset"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
