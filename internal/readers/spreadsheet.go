package readers

import (
	"context"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SourceReader = (*SpreadsheetReader)(nil)

// SpreadsheetReader emits one segment per data row of every sheet.
type SpreadsheetReader struct{}

func (s *SpreadsheetReader) Kind() domain.SourceKind {
	return domain.SourceSpreadsheet
}

func (s *SpreadsheetReader) Read(ctx context.Context, ref string) ([]domain.Segment, error) {
	f, err := excelize.OpenFile(ref)
	if err != nil {
		return nil, unreadable(ref, err)
	}
	defer f.Close()

	source := domain.SourceRef(ref)
	var segments []domain.Segment
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, unreadable(ref, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		for i, record := range rows[1:] {
			if isBlankRow(record) {
				continue
			}
			segments = append(segments, domain.Segment{
				Source:  source,
				Content: renderRow(header, record),
				Metadata: map[string]string{
					"format": domain.SourceSpreadsheet.String(),
					"sheet":  sheet,
					"row":    strconv.Itoa(i),
				},
			})
		}
	}
	return segments, nil
}

func isBlankRow(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
