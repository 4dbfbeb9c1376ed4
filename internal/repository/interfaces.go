package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-fund/internal/domain"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository can
// run inside or outside a transaction.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// CapitalRepository defines the interface for the single capital row
type CapitalRepository interface {
	// Get reads the capital without locking it
	Get(ctx context.Context) (*domain.Capital, error)

	// GetForUpdate reads the capital and locks the row until the transaction ends
	GetForUpdate(ctx context.Context) (*domain.Capital, error)

	// Update stores a new capital amount
	Update(ctx context.Context, amount decimal.Decimal, at time.Time) error
}

// MovementRepository defines the interface for the capital audit trail
type MovementRepository interface {
	// Create appends a movement and fills in its ID
	Create(ctx context.Context, movement *domain.CapitalMovement) error

	// List returns the most recent movements first
	List(ctx context.Context, limit int) ([]*domain.CapitalMovement, error)

	// Sum adds up every movement amount
	Sum(ctx context.Context) (decimal.Decimal, error)

	// DeleteByLoan removes movements that reference the loan or any of its payments
	DeleteByLoan(ctx context.Context, loanID uuid.UUID) (int64, error)
}

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, clientID uuid.UUID) (*domain.Client, error)
	GetByIDForUpdate(ctx context.Context, clientID uuid.UUID) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, clientID uuid.UUID) error
}

// LoanRepository defines the interface for loan and installment data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// GetByIDForUpdate retrieves a loan and locks its row
	GetByIDForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// List retrieves loans matching the filter, newest first
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// ListIDs returns the IDs of every loan
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// UpdateTotals stores totals, status and total payable of a loan
	UpdateTotals(ctx context.Context, loan *domain.Loan) error

	// UpdateStatus overwrites the status of a loan without touching its totals
	UpdateStatus(ctx context.Context, loanID uuid.UUID, status string) error

	// Delete removes a loan row
	Delete(ctx context.Context, loanID uuid.UUID) error

	// CreateInstallments creates the installment schedule of a loan
	CreateInstallments(ctx context.Context, installments []*domain.Installment) error

	// GetInstallments retrieves installments by loan ID ordered by number
	GetInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)

	// GetInstallmentsForUpdate is GetInstallments with the rows locked
	GetInstallmentsForUpdate(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)

	// GetInstallmentByID retrieves a single installment
	GetInstallmentByID(ctx context.Context, installmentID uuid.UUID) (*domain.Installment, error)

	// UpdateInstallment stores amount, status, paid amount, paid date and due date
	UpdateInstallment(ctx context.Context, installment *domain.Installment) error

	// DeleteInstallments removes every installment of a loan
	DeleteInstallments(ctx context.Context, loanID uuid.UUID) (int64, error)

	// Summary aggregates the loan book for the dashboard
	Summary(ctx context.Context) (*domain.Summary, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByLoanID retrieves all payments for a loan
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	// DeleteByLoan removes every payment of a loan
	DeleteByLoan(ctx context.Context, loanID uuid.UUID) (int64, error)
}

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Capital   CapitalRepository
	Movements MovementRepository
	Clients   ClientRepository
	Loans     LoanRepository
	Payments  PaymentRepository
}

// Store hands out repositories and runs units of work in a transaction
type Store interface {
	// Repositories returns repositories that run outside any transaction
	Repositories() Repositories

	// WithinTx runs fn in a transaction, committing when it returns nil and
	// rolling back on error or panic. fn receives the transaction's context
	// and must use it for every repository call.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	// Ping checks the connection
	Ping(ctx context.Context) error
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}
