package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CapitalRowID identifies the single capital row.
const CapitalRowID = 1

// Movement types
const (
	MovementManualSet    = "manual_set"
	MovementManualAdjust = "manual_adjust"
	MovementLoan         = "loan"
	MovementPayment      = "payment"
	MovementPayoff       = "payoff"
)

// Capital is the fund available for new loans
type Capital struct {
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CapitalMovement is an append-only audit record of one change to the capital
type CapitalMovement struct {
	ID        int64           `json:"id" db:"id"`
	Type      string          `json:"type" db:"type"`
	Amount    decimal.Decimal `json:"amount" db:"amount"` // signed delta
	LoanID    uuid.NullUUID   `json:"loan_id" db:"loan_id"`
	PaymentID uuid.NullUUID   `json:"payment_id" db:"payment_id"`
	Note      *string         `json:"note,omitempty" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type SetCapitalRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,decimal_gte=0"`
}

type AdjustCapitalRequest struct {
	Delta *decimal.Decimal `json:"delta" validate:"required"`
	Note  *string          `json:"note,omitempty"`
}

// Summary is the dashboard view of the fund.
type Summary struct {
	Capital          decimal.Decimal `json:"capital" db:"capital"`
	ActiveLoans      int             `json:"active_loans" db:"active_loans"`
	LoansInArrears   int             `json:"loans_in_arrears" db:"loans_in_arrears"`
	FinishedLoans    int             `json:"finished_loans" db:"finished_loans"`
	TotalLent        decimal.Decimal `json:"total_lent" db:"total_lent"`
	TotalCollected   decimal.Decimal `json:"total_collected" db:"total_collected"`
	PendingPortfolio decimal.Decimal `json:"pending_portfolio" db:"pending_portfolio"`
	Clients          int             `json:"clients" db:"clients"`

	// MovementsTotal is the sum of the capital movements still on record.
	// UnreconciledCapital is capital minus that sum; it becomes non-zero
	// when deleted loans take their movements with them.
	MovementsTotal      decimal.Decimal `json:"movements_total" db:"-"`
	UnreconciledCapital decimal.Decimal `json:"unreconciled_capital" db:"-"`
}
