// internal/repository/notification_repo.go
package repository

import (
	"context"
	"errors"
	"time"

	"airtel-ipn-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Notification, error)
	// InsertIfAbsent inserts the notification unless a row with the same
	// transaction_id already exists. Exactly one concurrent caller observes
	// inserted=true; the rest get the previously stored row.
	InsertIfAbsent(ctx context.Context, n *domain.Notification) (*domain.Notification, bool, error)
	// UpdateStatus applies a forward-valid status transition. Returns
	// ErrNotFound when no row matches, ErrInvalidTransition when the stored
	// status does not permit the move.
	UpdateStatus(ctx context.Context, transactionID string, status domain.NotificationStatus, at time.Time) error
	// RecordSettlement stores the settlement leg of a processing call.
	RecordSettlement(ctx context.Context, transactionID string, settledAmount float64, settledAt *time.Time, mobiquityRef string) error
}

type notificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &notificationRepo{db: db}
}

const notificationColumns = `
	id, ipn_ref, transaction_id, bill_ref_number, ref_type, amount, currency,
	msisdn, merchant_msisdn, status, validated, reason_code,
	mobiquity_reference, settled_amount, settled_at, raw_payload,
	received_at, processed_at, created_at, updated_at
`

func (r *notificationRepo) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE transaction_id = $1
	`

	var n domain.Notification
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx, query, transactionID).Scan(
			&n.ID,
			&n.IPNRef,
			&n.TransactionID,
			&n.BillRefNumber,
			&n.RefType,
			&n.Amount,
			&n.Currency,
			&n.MSISDN,
			&n.MerchantMSISDN,
			&n.Status,
			&n.Validated,
			&n.ReasonCode,
			&n.MobiquityReference,
			&n.SettledAmount,
			&n.SettledAt,
			&n.RawPayload,
			&n.ReceivedAt,
			&n.ProcessedAt,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &n, nil
}

func (r *notificationRepo) InsertIfAbsent(ctx context.Context, n *domain.Notification) (*domain.Notification, bool, error) {
	query := `
		INSERT INTO notifications (
			ipn_ref, transaction_id, bill_ref_number, ref_type, amount, currency,
			msisdn, merchant_msisdn, status, validated, reason_code,
			mobiquity_reference, settled_amount, settled_at, raw_payload,
			received_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx, query,
			n.IPNRef,
			n.TransactionID,
			n.BillRefNumber,
			n.RefType,
			n.Amount,
			n.Currency,
			n.MSISDN,
			n.MerchantMSISDN,
			n.Status,
			n.Validated,
			n.ReasonCode,
			n.MobiquityReference,
			n.SettledAmount,
			n.SettledAt,
			n.RawPayload,
			n.ReceivedAt,
			n.ProcessedAt,
		).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	})
	if err == nil {
		return n, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict on transaction_id: a concurrent or earlier delivery won the
	// insert. Return its row so the caller can replay the stored outcome.
	existing, err := r.FindByTransactionID(ctx, n.TransactionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *notificationRepo) UpdateStatus(ctx context.Context, transactionID string, status domain.NotificationStatus, at time.Time) error {
	priors := domain.PriorStatuses(status)
	if len(priors) == 0 {
		return ErrInvalidTransition
	}
	priorStrs := make([]string, len(priors))
	for i, p := range priors {
		priorStrs[i] = string(p)
	}

	query := `
		UPDATE notifications
		SET
			status = $2,
			processed_at = CASE WHEN $2::text IN ('processed', 'failed') THEN $3 ELSE processed_at END,
			updated_at = NOW()
		WHERE transaction_id = $1 AND status = ANY($4)
	`

	var tag pgconn.CommandTag
	err := withRetry(ctx, func() error {
		var execErr error
		tag, execErr = r.db.Exec(ctx, query, transactionID, status, at, priorStrs)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: distinguish a missing row from a forbidden transition.
	if _, err := r.FindByTransactionID(ctx, transactionID); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (r *notificationRepo) RecordSettlement(ctx context.Context, transactionID string, settledAmount float64, settledAt *time.Time, mobiquityRef string) error {
	query := `
		UPDATE notifications
		SET
			settled_amount = $2,
			settled_at = COALESCE($3, settled_at),
			mobiquity_reference = COALESCE(NULLIF($4, ''), mobiquity_reference),
			updated_at = NOW()
		WHERE transaction_id = $1
	`

	var tag pgconn.CommandTag
	err := withRetry(ctx, func() error {
		var execErr error
		tag, execErr = r.db.Exec(ctx, query, transactionID, settledAmount, settledAt, mobiquityRef)
		return execErr
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// withRetry performs one bounded immediate retry for failures pgx reports as
// safe to retry (the request never reached the server). Anything else is
// surfaced to the caller, which matches webhook retry conventions.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	if pgconn.SafeToRetry(err) {
		return fn()
	}
	return err
}
