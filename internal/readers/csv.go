package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SourceReader = (*CSVReader)(nil)

// CSVReader emits one segment per data row, rendered as "column: value" lines.
type CSVReader struct{}

func (c *CSVReader) Kind() domain.SourceKind {
	return domain.SourceCsv
}

func (c *CSVReader) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	f, err := os.Open(ref)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, unreadable(ref, err)
	}

	source := domain.SourceRef(ref)
	var segments []domain.Segment
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, unreadable(ref, err)
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, unreadable(ref, err)
		}
		segments = append(segments, domain.Segment{
			Source:  source,
			Content: renderRow(header, record),
			Metadata: map[string]string{
				"format": domain.SourceCsv.String(),
				"row":    strconv.Itoa(row),
			},
		})
	}
	return segments, nil
}

// renderRow pairs each value with its column name. Extra values get
// positional names; missing values render empty.
func renderRow(header, record []string) string {
	n := len(header)
	if len(record) > n {
		n = len(record)
	}
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := "column_" + strconv.Itoa(i)
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			name = strings.TrimSpace(header[i])
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		lines = append(lines, name+": "+value)
	}
	return strings.Join(lines, "\n")
}
