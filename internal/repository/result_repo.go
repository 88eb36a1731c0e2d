// internal/repository/result_repo.go
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository records the per-attempt audit trail: one row per
// validation verdict and one per processing attempt. Never read on the hot
// path; kept for reconciliation.
type ResultRepository interface {
	CreateValidationResult(ctx context.Context, notificationID int64, valid bool, message string) error
	CreateProcessingResult(ctx context.Context, notificationID int64, processed bool, message string) error
}

type resultRepo struct {
	db *pgxpool.Pool
}

func NewResultRepository(db *pgxpool.Pool) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) CreateValidationResult(ctx context.Context, notificationID int64, valid bool, message string) error {
	query := `
		INSERT INTO validation_results (notification_id, is_valid, validation_message)
		VALUES ($1, $2, $3)
	`

	return withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx, query, notificationID, valid, message)
		return err
	})
}

func (r *resultRepo) CreateProcessingResult(ctx context.Context, notificationID int64, processed bool, message string) error {
	query := `
		INSERT INTO processing_results (notification_id, is_processed, processing_message)
		VALUES ($1, $2, $3)
	`

	return withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx, query, notificationID, processed, message)
		return err
	})
}
