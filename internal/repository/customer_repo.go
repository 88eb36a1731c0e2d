// internal/repository/customer_repo.go
package repository

import (
	"context"
	"errors"

	"airtel-ipn-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository interface {
	// FindByBillRef resolves a bill reference to its customer record.
	// Returns ErrNotFound when no customer matches.
	FindByBillRef(ctx context.Context, billRef string, refType domain.RefType) (*domain.Customer, error)
}

type customerRepo struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) FindByBillRef(ctx context.Context, billRef string, refType domain.RefType) (*domain.Customer, error) {
	query := `
		SELECT id, bill_ref_number, ref_type, msisdn, full_name, status,
		       created_at, updated_at
		FROM customers
		WHERE bill_ref_number = $1 AND ref_type = $2
	`

	var c domain.Customer
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx, query, billRef, refType).Scan(
			&c.ID,
			&c.BillRefNumber,
			&c.RefType,
			&c.MSISDN,
			&c.FullName,
			&c.Status,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &c, nil
}
