package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, storage_path, size_bytes, created_at").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := NewHandoutRepository(db).GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrHandoutNotFound) {
		t.Fatalf("expected ErrHandoutNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateAndGetHandout(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	handout := &domain.Handout{ID: "h1", Filename: "notes.pdf", StoragePath: "h1_notes.pdf", SizeBytes: 42, CreatedAt: created}

	mock.ExpectExec("INSERT INTO handouts").
		WithArgs("h1", "notes.pdf", "h1_notes.pdf", int64(42), created).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id, filename, storage_path, size_bytes, created_at").
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "filename", "storage_path", "size_bytes", "created_at"}).
			AddRow("h1", "notes.pdf", "h1_notes.pdf", int64(42), created))

	repo := NewHandoutRepository(db)
	if err := repo.Create(context.Background(), handout); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := repo.GetByID(context.Background(), "h1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.StoragePath != "h1_notes.pdf" || got.SizeBytes != 42 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected handout %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJournalAppendStoresNullableCitation(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	cited := 2

	mock.ExpectExec("INSERT INTO handout_questions").
		WithArgs("q1", "h1", "What did the dog do?", "answered", "The dog ran.", sql.NullInt64{Int64: 2, Valid: true}, "", int64(120), created).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO handout_questions").
		WithArgs("q2", "h1", "zebra?", "no_answer", "", sql.NullInt64{}, "", int64(80), created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	journal := NewQuestionJournal(db)
	records := []*domain.QuestionRecord{
		{ID: "q1", HandoutID: "h1", Question: "What did the dog do?", Status: domain.QuestionAnswered, Answer: "The dog ran.", CitedSegmentID: &cited, DurationMS: 120, CreatedAt: created},
		{ID: "q2", HandoutID: "h1", Question: "zebra?", Status: domain.QuestionNoAnswer, DurationMS: 80, CreatedAt: created},
	}
	for _, record := range records {
		if err := journal.Append(context.Background(), record); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJournalListByHandout(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	created := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	columns := []string{"id", "handout_id", "question", "status", "answer", "cited_segment_id", "error_message", "duration_ms", "created_at"}
	mock.ExpectQuery("SELECT id, handout_id, question, status").
		WithArgs("h1", 10).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("q2", "h1", "zebra?", "no_answer", "", nil, "", int64(80), created).
			AddRow("q1", "h1", "dog?", "answered", "It ran.", int64(2), "", int64(120), created))

	records, err := NewQuestionJournal(db).ListByHandout(context.Background(), "h1", 10)
	if err != nil {
		t.Fatalf("ListByHandout() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CitedSegmentID != nil || records[0].Status != domain.QuestionNoAnswer {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].CitedSegmentID == nil || *records[1].CitedSegmentID != 2 {
		t.Fatalf("unexpected citation %+v", records[1].CitedSegmentID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(int64(2026101501)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS handouts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
