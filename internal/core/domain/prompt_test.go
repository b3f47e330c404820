package domain

import (
	"strings"
	"testing"
)

func TestPromptTemplate_Render(t *testing.T) {
	tmpl := PromptTemplate{
		System: "sys {name}",
		Human:  "Context:\n{context}\n\nQuestion:\n{input}",
		Prefix: "Answer:",
	}

	p := tmpl.Render(map[string]string{
		"context": "leave is 20 days",
		"input":   "how much leave?",
		"name":    "bot",
	})

	if p.System != "sys bot" {
		t.Errorf("unexpected system %q", p.System)
	}
	if p.Human != "Context:\nleave is 20 days\n\nQuestion:\nhow much leave?" {
		t.Errorf("unexpected human %q", p.Human)
	}
	if p.Prefix != "Answer:" {
		t.Errorf("unexpected prefix %q", p.Prefix)
	}
}

func TestPromptTemplate_Render_ValuesNotReexpanded(t *testing.T) {
	tmpl := PromptTemplate{Human: "{a} {b}"}
	p := tmpl.Render(map[string]string{"a": "{b}", "b": "x"})

	if p.Human != "{b} x" {
		t.Errorf("expected substituted values to be left alone, got %q", p.Human)
	}
}

func TestDefaultPrompts(t *testing.T) {
	p := DefaultPrompts()

	if !strings.Contains(p.RAG.System, "Only use the provided context") {
		t.Error("RAG prompt must restrict answers to the provided context")
	}
	if !strings.Contains(p.SQLAnswer.Human, "Exclude id and created_at") {
		t.Error("SQL answer prompt must exclude identifier and timestamp columns")
	}
	if !strings.Contains(p.Merge.Human, "without repetition") {
		t.Error("merge prompt must ask for deduplication")
	}
	if !strings.Contains(p.WriteQuery.Human, "{table_info}") {
		t.Error("query prompt must include the schema")
	}
}

func TestPromptSet_WithDefaults(t *testing.T) {
	custom := PromptSet{RAG: PromptTemplate{System: "custom"}}
	filled := custom.WithDefaults()

	if filled.RAG.System != "custom" {
		t.Errorf("expected custom system kept, got %q", filled.RAG.System)
	}
	if filled.RAG.Human != DefaultPrompts().RAG.Human {
		t.Error("expected missing human template filled from defaults")
	}
	if filled.Merge != DefaultPrompts().Merge {
		t.Error("expected missing merge template filled from defaults")
	}
}
