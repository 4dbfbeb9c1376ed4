package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-fund/internal/domain"
)

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, client_id, loan_id, installment_id, payment_date, amount, type, notes, created_at)
		VALUES (:id, :client_id, :loan_id, :installment_id, :payment_date, :amount, :type, :notes, :created_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, payment); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, client_id, loan_id, installment_id, payment_date, amount, type, notes, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY payment_date, created_at
	`

	payments := []*domain.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, fmt.Errorf("get payments of loan %s: %w", loanID, err)
	}
	return payments, nil
}

func (r *paymentRepository) DeleteByLoan(ctx context.Context, loanID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE loan_id = $1`, loanID)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	return result.RowsAffected()
}
