package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-fund/internal/domain"
)

const loanColumns = `id, client_id, amount, loan_date, installments_count, status,
	base_installment, interest_per_installment, installment_total, total_payable,
	paid_total, pending_total, notes, created_at, updated_at`

const installmentColumns = `id, loan_id, number, due_date, amount, status, paid_amount, paid_date, created_at`

type loanRepository struct {
	db DBTX
}

func NewLoanRepository(db DBTX) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, client_id, amount, loan_date, installments_count, status,
			base_installment, interest_per_installment, installment_total, total_payable,
			paid_total, pending_total, notes, created_at, updated_at)
		VALUES (:id, :client_id, :amount, :loan_date, :installments_count, :status,
			:base_installment, :interest_per_installment, :installment_total, :total_payable,
			:paid_total, :pending_total, :notes, :created_at, :updated_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, loan); err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, loanID)
}

func (r *loanRepository) get(ctx context.Context, query string, loanID uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, fmt.Errorf("get loan %s: %w", loanID, err)
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + loanColumns + ` FROM loans`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY loan_date DESC, created_at DESC`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM loans ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list loan ids: %w", err)
	}
	return ids, nil
}

func (r *loanRepository) UpdateTotals(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET total_payable = :total_payable, paid_total = :paid_total, pending_total = :pending_total,
			status = :status, updated_at = :updated_at
		WHERE id = :id
	`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, loan)
	if err != nil {
		return fmt.Errorf("update loan totals: %w", err)
	}
	return expectAffected(result, "loan")
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID uuid.UUID, status string) error {
	query := `
		UPDATE loans
		SET status = $2, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, loanID, status)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	return expectAffected(result, "loan")
}

func (r *loanRepository) Delete(ctx context.Context, loanID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, loanID)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return expectAffected(result, "loan")
}

func (r *loanRepository) CreateInstallments(ctx context.Context, installments []*domain.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	query := `
		INSERT INTO installments (id, loan_id, number, due_date, amount, status, paid_amount, paid_date, created_at)
		VALUES (:id, :loan_id, :number, :due_date, :amount, :status, :paid_amount, :paid_date, :created_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, installments); err != nil {
		return fmt.Errorf("insert installments: %w", err)
	}
	return nil
}

func (r *loanRepository) GetInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	return r.selectInstallments(ctx, `SELECT `+installmentColumns+` FROM installments WHERE loan_id = $1 ORDER BY number`, loanID)
}

func (r *loanRepository) GetInstallmentsForUpdate(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	return r.selectInstallments(ctx, `SELECT `+installmentColumns+` FROM installments WHERE loan_id = $1 ORDER BY number FOR UPDATE`, loanID)
}

func (r *loanRepository) selectInstallments(ctx context.Context, query string, loanID uuid.UUID) ([]*domain.Installment, error) {
	installments := []*domain.Installment{}
	if err := r.db.SelectContext(ctx, &installments, query, loanID); err != nil {
		return nil, fmt.Errorf("get installments of loan %s: %w", loanID, err)
	}
	return installments, nil
}

func (r *loanRepository) GetInstallmentByID(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	var inst domain.Installment
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1`
	if err := r.db.GetContext(ctx, &inst, query, installmentID); err != nil {
		return nil, fmt.Errorf("get installment %s: %w", installmentID, err)
	}
	return &inst, nil
}

func (r *loanRepository) UpdateInstallment(ctx context.Context, installment *domain.Installment) error {
	query := `
		UPDATE installments
		SET due_date = :due_date, amount = :amount, status = :status,
			paid_amount = :paid_amount, paid_date = :paid_date
		WHERE id = :id
	`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, installment)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	return expectAffected(result, "installment")
}

func (r *loanRepository) DeleteInstallments(ctx context.Context, loanID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM installments WHERE loan_id = $1`, loanID)
	if err != nil {
		return 0, fmt.Errorf("delete installments: %w", err)
	}
	return result.RowsAffected()
}

func (r *loanRepository) Summary(ctx context.Context) (*domain.Summary, error) {
	query := `
		SELECT
			(SELECT amount FROM capital WHERE id = 1) AS capital,
			(SELECT COUNT(*) FROM loans WHERE status = 'Activo') AS active_loans,
			(SELECT COUNT(*) FROM loans WHERE status = 'En mora') AS loans_in_arrears,
			(SELECT COUNT(*) FROM loans WHERE status = 'Finalizado') AS finished_loans,
			(SELECT COALESCE(SUM(amount), 0) FROM loans) AS total_lent,
			(SELECT COALESCE(SUM(amount), 0) FROM payments) AS total_collected,
			(SELECT COALESCE(SUM(pending_total), 0) FROM loans) AS pending_portfolio,
			(SELECT COUNT(*) FROM clients) AS clients
	`

	var summary domain.Summary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("loan book summary: %w", err)
	}
	return &summary, nil
}
