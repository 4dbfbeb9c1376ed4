package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-fund/pkg/utils"
)

const (
	PaymentTypeRegular = "payment"
	PaymentTypePayoff  = "payoff"
)

// Payment is an immutable record of money collected on a loan
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ClientID      uuid.UUID       `json:"client_id" db:"client_id"`
	LoanID        uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentID uuid.NullUUID   `json:"installment_id" db:"installment_id"`
	PaymentDate   Date            `json:"payment_date" db:"payment_date"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Type          string          `json:"type" db:"type"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type MakePaymentRequest struct {
	LoanID        *uuid.UUID       `json:"loan_id" validate:"required_without=InstallmentID"`
	InstallmentID *uuid.UUID       `json:"installment_id" validate:"required_without=LoanID"`
	Amount        *decimal.Decimal `json:"amount" validate:"required_without=Payoff,omitempty,decimal_gt=0"`
	Payoff        bool             `json:"payoff"`
	PaymentDate   Date             `json:"payment_date"`
	Notes         *string          `json:"notes,omitempty"`
}

type MakePaymentResponse struct {
	ID     uuid.UUID       `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

// ApplyPayment spreads amount over the installments in ascending number order,
// starting at fromNumber (0 or 1 means from the first one) and skipping
// installments with nothing pending. Installments that get fully covered are
// marked paid on paidOn. It returns the installments it touched and whatever
// could not be applied.
func ApplyPayment(installments []*Installment, amount decimal.Decimal, fromNumber int, paidOn Date) ([]*Installment, decimal.Decimal) {
	remaining := utils.Round2(amount)
	touched := make([]*Installment, 0, len(installments))

	for _, inst := range installments {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if inst.Number < fromNumber {
			continue
		}

		pending := inst.Pending()
		if pending.LessThanOrEqual(decimal.Zero) {
			continue
		}

		applied := utils.MinDecimal(remaining, pending)
		inst.PaidAmount = utils.Round2(inst.PaidAmount.Add(applied))
		if inst.IsPaid() {
			inst.Status = InstallmentStatusPaid
			date := paidOn
			inst.PaidDate = &date
		}
		remaining = utils.Round2(remaining.Sub(applied))
		touched = append(touched, inst)
	}

	return touched, remaining
}

// PrincipalPending returns the part of the installment's principal that has
// not been collected yet. Collections are credited to interest first.
func PrincipalPending(inst *Installment, base, interest decimal.Decimal) decimal.Decimal {
	paidTowardsPrincipal := utils.MaxDecimal(decimal.Zero, inst.PaidAmount.Sub(interest))
	principalPaid := utils.MinDecimal(base, paidTowardsPrincipal)
	return utils.Round2(base.Sub(principalPaid))
}

// PayoffAmount is what settling the loan early costs: the uncollected
// principal of every installment, with outstanding interest forgiven.
func PayoffAmount(loan *Loan, installments []*Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		pending := PrincipalPending(inst, loan.BaseInstallment, loan.InterestPerInstallment)
		if pending.GreaterThan(decimal.Zero) {
			total = total.Add(pending)
		}
	}
	return utils.Round2(total)
}

// ApplyPayoff settles the loan: each installment with principal outstanding is
// shrunk to what it will have collected after the payoff and marked paid, and
// the loan's totals are closed. It returns the amount charged and the
// installments it rewrote. Nothing is modified when the charge would be zero.
func ApplyPayoff(loan *Loan, installments []*Installment, paidOn Date) (decimal.Decimal, []*Installment) {
	charge := PayoffAmount(loan, installments)
	if charge.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	touched := make([]*Installment, 0, len(installments))
	owed := decimal.Zero
	for _, inst := range installments {
		pending := PrincipalPending(inst, loan.BaseInstallment, loan.InterestPerInstallment)
		if pending.GreaterThan(decimal.Zero) {
			settled := utils.Round2(inst.PaidAmount.Add(pending))
			inst.Amount = settled
			inst.PaidAmount = settled
			inst.Status = InstallmentStatusPaid
			date := paidOn
			inst.PaidDate = &date
			touched = append(touched, inst)
		}
		owed = owed.Add(inst.Amount)
	}

	loan.TotalPayable = utils.Round2(owed)
	loan.PaidTotal = loan.TotalPayable
	loan.PendingTotal = decimal.Zero
	loan.Status = LoanStatusFinished

	return charge, touched
}
