package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

// QuestionJournal stores one row per asked question. Only the outcome is
// kept; segments and ranking are not persisted.
type QuestionJournal struct {
	db *sql.DB
}

func NewQuestionJournal(db *sql.DB) *QuestionJournal {
	return &QuestionJournal{db: db}
}

func (j *QuestionJournal) Append(ctx context.Context, record *domain.QuestionRecord) error {
	var citedID sql.NullInt64
	if record.CitedSegmentID != nil {
		citedID = sql.NullInt64{Int64: int64(*record.CitedSegmentID), Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO handout_questions (
	id, handout_id, question, status, answer, cited_segment_id, error_message, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		record.ID, record.HandoutID, record.Question, string(record.Status), record.Answer,
		citedID, record.Error, record.DurationMS, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert question record: %w", err)
	}
	return nil
}

// ListByHandout returns the newest records first.
func (j *QuestionJournal) ListByHandout(ctx context.Context, handoutID string, limit int) ([]domain.QuestionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT id, handout_id, question, status, answer, cited_segment_id, error_message, duration_ms, created_at
FROM handout_questions
WHERE handout_id = $1
ORDER BY created_at DESC
LIMIT $2
`, handoutID, limit)
	if err != nil {
		return nil, fmt.Errorf("query question records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.QuestionRecord, 0, limit)
	for rows.Next() {
		var record domain.QuestionRecord
		var status string
		var citedID sql.NullInt64
		if err := rows.Scan(
			&record.ID, &record.HandoutID, &record.Question, &status, &record.Answer,
			&citedID, &record.Error, &record.DurationMS, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question record: %w", err)
		}
		record.Status = domain.QuestionStatus(status)
		if citedID.Valid {
			id := int(citedID.Int64)
			record.CitedSegmentID = &id
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question records: %w", err)
	}
	return records, nil
}
