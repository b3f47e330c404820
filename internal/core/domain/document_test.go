package domain

import (
	"errors"
	"testing"
)

func TestSourceRef(t *testing.T) {
	tests := []struct {
		docPath string
		want    string
	}{
		{"doc1.txt", "doc1.txt"},
		{"_doc1.txt", "doc1.txt"},
		{"documents/_private_report.pdf", "private_report.pdf"},
		{"uploads/public_3f2a.pdf", "public_3f2a.pdf"},
		{"https://example.com/about", "https://example.com/about"},
		{"HTTP://example.com/_x", "HTTP://example.com/_x"},
	}

	for _, tt := range tests {
		t.Run(tt.docPath, func(t *testing.T) {
			if got := SourceRef(tt.docPath); got != tt.want {
				t.Errorf("SourceRef(%q) = %q, want %q", tt.docPath, got, tt.want)
			}
		})
	}
}

func TestSourceRef_StableAcrossRename(t *testing.T) {
	name := "doc1.txt"
	if SourceRef(name) != SourceRef(MarkProcessed(name)) {
		t.Error("source reference should not change when a file is marked processed")
	}
}

func TestMarkProcessed(t *testing.T) {
	if got := MarkProcessed("doc1.txt"); got != "_doc1.txt" {
		t.Errorf("expected _doc1.txt, got %s", got)
	}
	if got := MarkProcessed("_doc1.txt"); got != "_doc1.txt" {
		t.Errorf("marking twice should be a no-op, got %s", got)
	}
	if !IsProcessed("_a") || IsProcessed("a_") {
		t.Error("IsProcessed should only look at the prefix")
	}
}

func TestDocument_IsRemote(t *testing.T) {
	local := &Document{DocPath: "_doc1.txt"}
	remote := &Document{DocPath: "https://example.com/page"}

	if local.IsRemote() {
		t.Error("expected local document")
	}
	if !remote.IsRemote() {
		t.Error("expected remote document")
	}
	if remote.SourceRef() != "https://example.com/page" {
		t.Errorf("unexpected source ref %s", remote.SourceRef())
	}
}

func TestDocumentListQuery_Normalize_Defaults(t *testing.T) {
	q := DocumentListQuery{}
	if err := q.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Limit != DefaultPageLimit {
		t.Errorf("expected limit %d, got %d", DefaultPageLimit, q.Limit)
	}
	if q.Page != 1 {
		t.Errorf("expected page 1, got %d", q.Page)
	}
	if q.OrderBy != "created_at" || q.OrderDirection != "desc" {
		t.Errorf("unexpected order %s %s", q.OrderBy, q.OrderDirection)
	}
	if q.Type != "all" {
		t.Errorf("expected type all, got %s", q.Type)
	}
	if q.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", q.Offset())
	}
}

func TestDocumentListQuery_Normalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		q    DocumentListQuery
	}{
		{"order by injection", DocumentListQuery{OrderBy: "id; DROP TABLE documents"}},
		{"bad direction", DocumentListQuery{OrderDirection: "sideways"}},
		{"bad type", DocumentListQuery{Type: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.q.Normalize(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDocumentListQuery_Offset(t *testing.T) {
	q := DocumentListQuery{Limit: 25, Page: 3, OrderDirection: "ASC", Type: "Private"}
	if err := q.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", q.Offset())
	}
	if q.OrderDirection != "asc" || q.Type != "private" {
		t.Errorf("expected lowercase values, got %s %s", q.OrderDirection, q.Type)
	}
}

func TestDocumentListQuery_LimitCapped(t *testing.T) {
	q := DocumentListQuery{Limit: 10_000}
	_ = q.Normalize()
	if q.Limit != MaxPageLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxPageLimit, q.Limit)
	}
}
