package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-fund/pkg/utils"
)

const (
	LoanStatusActive    = "Activo"
	LoanStatusFinished  = "Finalizado"
	LoanStatusInArrears = "En mora"
)

// ValidLoanStatus reports whether s is one of the loan statuses.
func ValidLoanStatus(s string) bool {
	switch s {
	case LoanStatusActive, LoanStatusFinished, LoanStatusInArrears:
		return true
	}
	return false
}

// Loan represents a loan entity
type Loan struct {
	ID                     uuid.UUID       `json:"id" db:"id"`
	ClientID               uuid.UUID       `json:"client_id" db:"client_id"`
	Amount                 decimal.Decimal `json:"amount" db:"amount"`
	LoanDate               Date            `json:"loan_date" db:"loan_date"`
	InstallmentsCount      int             `json:"installments_count" db:"installments_count"`
	Status                 string          `json:"status" db:"status"`
	BaseInstallment        decimal.Decimal `json:"base_installment" db:"base_installment"`
	InterestPerInstallment decimal.Decimal `json:"interest_per_installment" db:"interest_per_installment"`
	InstallmentTotal       decimal.Decimal `json:"installment_total" db:"installment_total"`
	TotalPayable           decimal.Decimal `json:"total_payable" db:"total_payable"`
	PaidTotal              decimal.Decimal `json:"paid_total" db:"paid_total"`
	PendingTotal           decimal.Decimal `json:"pending_total" db:"pending_total"`
	Notes                  *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// NewLoan builds a loan with its installment terms fixed from the principal.
func NewLoan(request *CreateLoanRequest, rate decimal.Decimal, now time.Time) *Loan {
	amount := utils.Round2(request.Amount)
	terms := utils.CalculateInstallmentTerms(amount, request.InstallmentsCount, rate)

	return &Loan{
		ID:                     uuid.New(),
		ClientID:               request.ClientID,
		Amount:                 amount,
		LoanDate:               request.LoanDate,
		InstallmentsCount:      request.InstallmentsCount,
		Status:                 LoanStatusActive,
		BaseInstallment:        terms.BaseInstallment,
		InterestPerInstallment: terms.InterestPerInstallment,
		InstallmentTotal:       terms.InstallmentTotal,
		TotalPayable:           terms.TotalPayable,
		PaidTotal:              decimal.Zero,
		PendingTotal:           terms.TotalPayable,
		Notes:                  request.Notes,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// LoanTotals is the outcome of aggregating a loan's installments.
type LoanTotals struct {
	PaidTotal    decimal.Decimal
	PendingTotal decimal.Decimal
	Status       string
}

// Aggregate refreshes every installment against today and derives the loan
// totals and status from them. It returns the installments whose status
// changed so the caller can persist them.
func Aggregate(installments []*Installment, today Date) (LoanTotals, []*Installment) {
	var (
		owed    = decimal.Zero
		paid    = decimal.Zero
		overdue bool
		changed []*Installment
	)

	for _, inst := range installments {
		if inst.RefreshStatus(today) {
			changed = append(changed, inst)
		}
		owed = owed.Add(inst.Amount)
		paid = paid.Add(inst.PaidAmount)
		if inst.Status == InstallmentStatusOverdue {
			overdue = true
		}
	}

	totals := LoanTotals{PaidTotal: utils.Round2(paid)}
	totals.PendingTotal = utils.Round2(owed.Sub(totals.PaidTotal))

	switch {
	case totals.PendingTotal.LessThanOrEqual(decimal.Zero):
		totals.Status = LoanStatusFinished
	case overdue:
		totals.Status = LoanStatusInArrears
	default:
		totals.Status = LoanStatusActive
	}

	return totals, changed
}

// Apply copies aggregated totals onto the loan.
func (l *Loan) Apply(totals LoanTotals) {
	l.PaidTotal = totals.PaidTotal
	l.PendingTotal = totals.PendingTotal
	l.Status = totals.Status
}

// PendingFromInstallments recomputes what is still owed on a loan.
func PendingFromInstallments(installments []*Installment) decimal.Decimal {
	owed := decimal.Zero
	paid := decimal.Zero
	for _, inst := range installments {
		owed = owed.Add(inst.Amount)
		paid = paid.Add(inst.PaidAmount)
	}
	return utils.Round2(owed.Sub(utils.Round2(paid)))
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ClientID          uuid.UUID       `json:"client_id" validate:"required"`
	Amount            decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	LoanDate          Date            `json:"loan_date" validate:"required"`
	InstallmentsCount int             `json:"installments_count" validate:"required,gte=1"`
	Notes             *string         `json:"notes,omitempty"`
}

type CreateLoanResponse struct {
	ID uuid.UUID `json:"id"`
}

type SetLoanStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Activo Finalizado 'En mora'"`
}

// LoanDetail is a loan together with its schedule and payments.
type LoanDetail struct {
	Loan         *Loan          `json:"loan"`
	Installments []*Installment `json:"installments"`
	Payments     []*Payment     `json:"payments"`
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	ClientID *uuid.UUID
	Status   string
}

// RepairResult reports the outcome of a schedule repair run.
type RepairResult struct {
	LoansChecked int `json:"loans_checked"`
	LoansFixed   int `json:"loans_fixed"`
}
