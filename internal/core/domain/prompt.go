package domain

import "strings"

// Prompt is a chat-style request to the text generation capability.
// Prefix is the start of the assistant turn the model continues from.
type Prompt struct {
	System string
	Human  string
	Prefix string
}

// PromptTemplate holds a prompt with {placeholder} variables
type PromptTemplate struct {
	System string `yaml:"system"`
	Human  string `yaml:"human"`
	Prefix string `yaml:"prefix"`
}

// Render substitutes {name} placeholders in every part of the template
func (t PromptTemplate) Render(vars map[string]string) Prompt {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return Prompt{
		System: r.Replace(t.System),
		Human:  r.Replace(t.Human),
		Prefix: r.Replace(t.Prefix),
	}
}

// PromptSet groups the templates used to answer a chat question
type PromptSet struct {
	WriteQuery PromptTemplate `yaml:"write_query"`
	SQLAnswer  PromptTemplate `yaml:"sql_answer"`
	RAG        PromptTemplate `yaml:"rag"`
	Merge      PromptTemplate `yaml:"merge"`
}

// DefaultPrompts returns the built-in prompt templates
func DefaultPrompts() PromptSet {
	return PromptSet{
		WriteQuery: PromptTemplate{
			System: "You are a PostgreSQL expert. Given an input question, create a syntactically correct PostgreSQL query to run. " +
				"Unless the user specifies a number of examples to obtain, query for at most {top_k} results using LIMIT. " +
				"Never query for all columns from a table; query only the columns needed to answer the question. " +
				"Only use the tables and columns listed below. Only ever write a single SELECT statement.",
			Human:  "Only use the following tables:\n{table_info}\n\nQuestion: {question}",
			Prefix: "SQLQuery:",
		},
		SQLAnswer: PromptTemplate{
			System: "You are an AI assistant that decides whether to use SQL results or general knowledge to answer questions.",
			Human: "Question: {question}\n\n" +
				"If this is a database-related question:\n" +
				"    - Use the SQL Query and SQL Result to answer.\n" +
				"    - Only perform GET operations, never DELETE or UPDATE.\n" +
				"    - SQL Query: {query}\n" +
				"    - SQL Result: {result}\n" +
				"    - Exclude id and created_at fields from your answer.\n" +
				"    - Provide a human-readable interpretation.\n\n" +
				"If not related to the database:\n" +
				"    - Ignore SQL and answer using general knowledge.",
			Prefix: "Final Answer:",
		},
		RAG: PromptTemplate{
			System: "You are an AI assistant for a consulting company. Only use the provided context from company documents.",
			Human:  "Context:\n{context}\n\nQuestion:\n{input}",
			Prefix: "Answer (be clear, professional, and factual):",
		},
		Merge: PromptTemplate{
			System: "You are an AI assistant that merges responses into one answer.",
			Human: "Context from SQL:\n{sql_response}\n\nContext from RAG:\n{vector_response}\n\n" +
				"Merge both contexts into a single, human-readable answer without repetition.",
			Prefix: "Answer (clear and concise):",
		},
	}
}

// WithDefaults fills empty templates from DefaultPrompts
func (p PromptSet) WithDefaults() PromptSet {
	d := DefaultPrompts()
	fill := func(t *PromptTemplate, def PromptTemplate) {
		if t.System == "" {
			t.System = def.System
		}
		if t.Human == "" {
			t.Human = def.Human
		}
		if t.Prefix == "" {
			t.Prefix = def.Prefix
		}
	}
	fill(&p.WriteQuery, d.WriteQuery)
	fill(&p.SQLAnswer, d.SQLAnswer)
	fill(&p.RAG, d.RAG)
	fill(&p.Merge, d.Merge)
	return p
}
