package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-fund/internal/domain"
)

type capitalRepository struct {
	db DBTX
}

func NewCapitalRepository(db DBTX) CapitalRepository {
	return &capitalRepository{db: db}
}

func (r *capitalRepository) Get(ctx context.Context) (*domain.Capital, error) {
	return r.get(ctx, `SELECT amount, updated_at FROM capital WHERE id = $1`)
}

func (r *capitalRepository) GetForUpdate(ctx context.Context) (*domain.Capital, error) {
	return r.get(ctx, `SELECT amount, updated_at FROM capital WHERE id = $1 FOR UPDATE`)
}

func (r *capitalRepository) get(ctx context.Context, query string) (*domain.Capital, error) {
	var capital domain.Capital
	if err := r.db.GetContext(ctx, &capital, query, domain.CapitalRowID); err != nil {
		return nil, fmt.Errorf("get capital: %w", err)
	}
	return &capital, nil
}

func (r *capitalRepository) Update(ctx context.Context, amount decimal.Decimal, at time.Time) error {
	query := `
		UPDATE capital
		SET amount = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, domain.CapitalRowID, amount, at)
	if err != nil {
		return fmt.Errorf("update capital: %w", err)
	}
	return expectAffected(result, "capital")
}

type movementRepository struct {
	db DBTX
}

func NewMovementRepository(db DBTX) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *domain.CapitalMovement) error {
	query := `
		INSERT INTO capital_movements (type, amount, loan_id, payment_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		movement.Type,
		movement.Amount,
		movement.LoanID,
		movement.PaymentID,
		movement.Note,
		movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return fmt.Errorf("insert capital movement: %w", err)
	}
	return nil
}

func (r *movementRepository) List(ctx context.Context, limit int) ([]*domain.CapitalMovement, error) {
	query := `
		SELECT id, type, amount, loan_id, payment_id, note, created_at
		FROM capital_movements
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	movements := []*domain.CapitalMovement{}
	if err := r.db.SelectContext(ctx, &movements, query, limit); err != nil {
		return nil, fmt.Errorf("list capital movements: %w", err)
	}
	return movements, nil
}

func (r *movementRepository) Sum(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM capital_movements`); err != nil {
		return decimal.Zero, fmt.Errorf("sum capital movements: %w", err)
	}
	return total, nil
}

func (r *movementRepository) DeleteByLoan(ctx context.Context, loanID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM capital_movements
		WHERE loan_id = $1
		   OR payment_id IN (SELECT id FROM payments WHERE loan_id = $1)
	`

	result, err := r.db.ExecContext(ctx, query, loanID)
	if err != nil {
		return 0, fmt.Errorf("delete capital movements: %w", err)
	}
	return result.RowsAffected()
}
