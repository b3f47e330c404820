package domain

import "testing"

func TestClassifySource(t *testing.T) {
	tests := []struct {
		ref  string
		want SourceKind
	}{
		{"https://example.com/handbook.pdf", SourceWebPage},
		{"http://intranet/page", SourceWebPage},
		{"report.pdf", SourcePdf},
		{"REPORT.PDF", SourcePdf},
		{"policy.docx", SourceDocx},
		{"staff.csv", SourceCsv},
		{"budget.xlsx", SourceSpreadsheet},
		{"notes.txt", SourcePlainText},
		{"README", SourcePlainText},
		{"legacy.doc", SourcePlainText},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := ClassifySource(tt.ref); got != tt.want {
				t.Errorf("ClassifySource(%q) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}
}

func TestSourceKind_String(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range AllSourceKinds() {
		s := k.String()
		if s == "unknown" {
			t.Errorf("kind %d has no name", k)
		}
		if seen[s] {
			t.Errorf("duplicate kind name %s", s)
		}
		seen[s] = true
	}
	if SourceKind(99).String() != "unknown" {
		t.Error("expected unknown for out of range kind")
	}
}
