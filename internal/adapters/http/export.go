package httpadapter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	questionsSheet  = "Questions"
)

var questionColumns = []string{"Asked at", "Question", "Status", "Answer", "Segment ID", "Error", "Duration ms"}

// writeQuestionWorkbook renders the question journal as a single-sheet workbook.
func writeQuestionWorkbook(w io.Writer, records []domain.QuestionRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", questionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for col, title := range questionColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(questionsSheet, cell, title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for idx, record := range records {
		segmentID := ""
		if record.CitedSegmentID != nil {
			segmentID = strconv.Itoa(*record.CitedSegmentID)
		}
		row := []any{
			record.CreatedAt.UTC().Format(time.RFC3339),
			record.Question,
			string(record.Status),
			record.Answer,
			segmentID,
			record.Error,
			record.DurationMS,
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(questionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", idx+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
