package driven

import "context"

// QueryResult is a tabular result of a read-only query
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

// StructuredStore executes generated queries against the relational store
type StructuredStore interface {
	// Schema describes the tables the generated query may use
	Schema(ctx context.Context) (string, error)

	// QueryReadOnly runs a single statement in a read-only transaction.
	// The caller is responsible for passing only vetted SELECT statements.
	QueryReadOnly(ctx context.Context, query string) (*QueryResult, error)
}
