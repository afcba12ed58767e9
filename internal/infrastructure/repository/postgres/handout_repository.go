package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

type HandoutRepository struct {
	db *sql.DB
}

func NewHandoutRepository(db *sql.DB) *HandoutRepository {
	return &HandoutRepository{db: db}
}

func (r *HandoutRepository) Create(ctx context.Context, handout *domain.Handout) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO handouts (id, filename, storage_path, size_bytes, created_at)
VALUES ($1,$2,$3,$4,$5)
`, handout.ID, handout.Filename, handout.StoragePath, handout.SizeBytes, handout.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert handout: %w", err)
	}
	return nil
}

func (r *HandoutRepository) GetByID(ctx context.Context, id string) (*domain.Handout, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, storage_path, size_bytes, created_at
FROM handouts
WHERE id = $1
`, id)

	var handout domain.Handout
	err := row.Scan(&handout.ID, &handout.Filename, &handout.StoragePath, &handout.SizeBytes, &handout.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrHandoutNotFound, "get handout by id", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan handout: %w", err)
	}
	return &handout, nil
}
