package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StructuredStore = (*StructuredStore)(nil)

// DefaultQueryTables are the tables generated queries may read
var DefaultQueryTables = []string{"employees", "employee_addresses", "documents"}

// redactedColumns never leave the database, whatever the query selects
var redactedColumns = map[string]bool{
	"password": true,
	"token":    true,
}

// StructuredStore runs generated queries in read-only transactions
type StructuredStore struct {
	db               *DB
	tables           []string
	statementTimeout time.Duration
	maxRows          int
}

// StructuredStoreConfig holds configuration for the structured store
type StructuredStoreConfig struct {
	Tables           []string      // Tables described to the model (default: DefaultQueryTables)
	StatementTimeout time.Duration // Per query (default: 10s)
	MaxRows          int           // Rows read per query (default: 100)
}

// NewStructuredStore creates a new StructuredStore
func NewStructuredStore(db *DB, cfg StructuredStoreConfig) *StructuredStore {
	tables := cfg.Tables
	if len(tables) == 0 {
		tables = DefaultQueryTables
	}
	timeout := cfg.StatementTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 100
	}
	return &StructuredStore{db: db, tables: tables, statementTimeout: timeout, maxRows: maxRows}
}

type columnInfo struct {
	table, name, dataType string
}

// Schema describes the allowed tables as CREATE TABLE-like text
func (s *StructuredStore) Schema(ctx context.Context) (string, error) {
	query := `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ANY($1)
		ORDER BY table_name, ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(s.tables))
	if err != nil {
		return "", fmt.Errorf("read schema: %w", err)
	}
	defer rows.Close()

	var columns []columnInfo
	for rows.Next() {
		var c columnInfo
		if err := rows.Scan(&c.table, &c.name, &c.dataType); err != nil {
			return "", err
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return formatSchema(columns), nil
}

// formatSchema renders columns grouped by table, leaving out redacted ones
func formatSchema(columns []columnInfo) string {
	byTable := make(map[string][]string)
	var order []string
	for _, c := range columns {
		if redactedColumns[c.name] {
			continue
		}
		if _, ok := byTable[c.table]; !ok {
			order = append(order, c.table)
		}
		byTable[c.table] = append(byTable[c.table], fmt.Sprintf("\t%s %s", c.name, strings.ToUpper(c.dataType)))
	}
	sort.Strings(order)

	var b strings.Builder
	for i, table := range order {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "CREATE TABLE %s (\n%s\n)", table, strings.Join(byTable[table], ",\n"))
	}
	return b.String()
}

// QueryReadOnly runs query in a READ ONLY transaction under a statement
// timeout. The transaction is always rolled back.
func (s *StructuredStore) QueryReadOnly(ctx context.Context, query string) (*driven.QueryResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	timeout := strconv.FormatInt(s.statementTimeout.Milliseconds(), 10)
	if _, err := tx.ExecContext(ctx, `SET LOCAL statement_timeout = `+timeout); err != nil {
		return nil, fmt.Errorf("set statement timeout: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &driven.QueryResult{Columns: columns, Rows: [][]string{}}

	for rows.Next() && len(result.Rows) < s.maxRows {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, renderRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return result, nil
}

// renderRow converts scanned values to text, redacting secret columns
func renderRow(columns []string, values []any) []string {
	row := make([]string, len(values))
	for i, v := range values {
		if redactedColumns[strings.ToLower(columns[i])] {
			row[i] = "[redacted]"
			continue
		}
		row[i] = renderValue(v)
	}
	return row
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
