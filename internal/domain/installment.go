package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-fund/pkg/utils"
)

// Installment statuses
const (
	InstallmentStatusPending = "Pendiente"
	InstallmentStatusOverdue = "Atrasada"
	InstallmentStatusPaid    = "Pagada"
)

// Installment is one biweekly slice of a loan's repayment schedule
type Installment struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	LoanID     uuid.UUID       `json:"loan_id" db:"loan_id"`
	Number     int             `json:"number" db:"number"`
	DueDate    Date            `json:"due_date" db:"due_date"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Status     string          `json:"status" db:"status"` // Pendiente, Atrasada, Pagada
	PaidAmount decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	PaidDate   *Date           `json:"paid_date,omitempty" db:"paid_date"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Pending returns what is still owed on the installment, never negative.
func (i *Installment) Pending() decimal.Decimal {
	return utils.MaxDecimal(decimal.Zero, utils.Round2(i.Amount.Sub(i.PaidAmount)))
}

// IsPaid reports whether the paid amount covers the installment.
func (i *Installment) IsPaid() bool {
	return utils.Round2(i.PaidAmount).GreaterThanOrEqual(utils.Round2(i.Amount))
}

// DeriveInstallmentStatus evaluates the installment state machine for today.
// Pagada is terminal: once reached it is kept regardless of the figures.
func DeriveInstallmentStatus(current string, dueDate Date, amount, paidAmount decimal.Decimal, today Date) string {
	if current == InstallmentStatusPaid {
		return InstallmentStatusPaid
	}
	if utils.Round2(paidAmount).GreaterThanOrEqual(utils.Round2(amount)) {
		return InstallmentStatusPaid
	}
	if dueDate.Before(today) {
		return InstallmentStatusOverdue
	}
	return InstallmentStatusPending
}

// RefreshStatus re-evaluates the status against today and reports whether it
// changed.
func (i *Installment) RefreshStatus(today Date) bool {
	next := DeriveInstallmentStatus(i.Status, i.DueDate, i.Amount, i.PaidAmount, today)
	if next == i.Status {
		return false
	}
	i.Status = next
	return true
}

// NewInstallments lays out the installments of a freshly created loan.
func NewInstallments(loan *Loan, now time.Time) []*Installment {
	schedule := BuildSchedule(loan.LoanDate, loan.InstallmentsCount)

	installments := make([]*Installment, 0, len(schedule))
	for idx, due := range schedule {
		installments = append(installments, &Installment{
			ID:         uuid.New(),
			LoanID:     loan.ID,
			Number:     idx + 1,
			DueDate:    due,
			Amount:     loan.InstallmentTotal,
			Status:     InstallmentStatusPending,
			PaidAmount: decimal.Zero,
			CreatedAt:  now,
		})
	}
	return installments
}
