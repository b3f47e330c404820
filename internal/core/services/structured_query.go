package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/runtime"
)

// StructuredQuery answers questions from the relational store by having the
// model write a SELECT statement, vetting it and describing the result.
type StructuredQuery struct {
	store    driven.StructuredStore
	services *runtime.Services
	logger   *slog.Logger
	topK     int
	timeout  time.Duration
	maxRows  int
}

// StructuredQueryConfig holds configuration for StructuredQuery.
type StructuredQueryConfig struct {
	Store    driven.StructuredStore
	Services *runtime.Services
	Logger   *slog.Logger
	TopK     int           // Row limit suggested to the model (default: 5)
	Timeout  time.Duration // Per external call (default: 30s)
	MaxRows  int           // Rows passed to the answer prompt (default: 50)
}

// NewStructuredQuery creates a structured query gateway.
func NewStructuredQuery(cfg StructuredQueryConfig) *StructuredQuery {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 50
	}
	return &StructuredQuery{
		store:    cfg.Store,
		services: cfg.Services,
		logger:   logger,
		topK:     topK,
		timeout:  timeout,
		maxRows:  maxRows,
	}
}

// Answer runs the structured path for an authenticated caller. Every
// failure wraps domain.ErrStructuredAnswerUnavailable.
func (s *StructuredQuery) Answer(ctx context.Context, qc domain.QueryContext) (string, error) {
	if !qc.Authenticated {
		return "", unavailable(domain.ErrAccessDenied)
	}

	llm, err := s.services.LLM()
	if err != nil {
		return "", unavailable(err)
	}
	prompts := s.services.Prompts()

	schema, err := s.schema(ctx)
	if err != nil {
		return "", unavailable(err)
	}

	raw, err := s.generate(ctx, llm, prompts.WriteQuery.Render(map[string]string{
		"top_k":      strconv.Itoa(s.topK),
		"table_info": schema,
		"question":   qc.Question,
	}))
	if err != nil {
		return "", unavailable(err)
	}

	query := SanitizeQuery(raw)
	if err := CheckReadOnly(query); err != nil {
		s.logger.Warn("rejected generated query", "query", query, "error", err)
		return "", unavailable(err)
	}

	result, err := s.execute(ctx, query)
	if err != nil {
		s.logger.Warn("structured query failed", "query", query, "error", err)
		return "", unavailable(err)
	}

	answer, err := s.generate(ctx, llm, prompts.SQLAnswer.Render(map[string]string{
		"question": qc.Question,
		"query":    query,
		"result":   s.formatResult(result),
	}))
	if err != nil {
		return "", unavailable(err)
	}

	s.logger.Debug("structured answer ready", "query", query, "rows", len(result.Rows))
	return answer, nil
}

func (s *StructuredQuery) schema(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Schema(ctx)
}

func (s *StructuredQuery) execute(ctx context.Context, query string) (*driven.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.QueryReadOnly(ctx, query)
}

func (s *StructuredQuery) generate(ctx context.Context, llm driven.LLMService, prompt domain.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return llm.Generate(ctx, prompt)
}

// formatResult renders rows as "column: value" pairs, one row per line.
func (s *StructuredQuery) formatResult(result *driven.QueryResult) string {
	if result == nil || len(result.Rows) == 0 {
		return "no rows"
	}

	rows := result.Rows
	truncated := false
	if len(rows) > s.maxRows {
		rows = rows[:s.maxRows]
		truncated = true
	}

	var b strings.Builder
	for _, row := range rows {
		pairs := make([]string, 0, len(row))
		for i, value := range row {
			name := "column_" + strconv.Itoa(i)
			if i < len(result.Columns) {
				name = result.Columns[i]
			}
			pairs = append(pairs, name+": "+value)
		}
		b.WriteString(strings.Join(pairs, ", "))
		b.WriteByte('\n')
	}
	if truncated {
		fmt.Fprintf(&b, "(%d more rows omitted)\n", len(result.Rows)-s.maxRows)
	}
	return strings.TrimRight(b.String(), "\n")
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStructuredAnswerUnavailable, err)
}
