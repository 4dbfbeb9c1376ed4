package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultInterestPerInstallment is the flat share of the original principal
// charged as interest on every installment.
var DefaultInterestPerInstallment = decimal.RequireFromString("0.05")

// InstallmentTerms holds the per-installment figures fixed at loan creation.
type InstallmentTerms struct {
	BaseInstallment        decimal.Decimal `json:"base_installment"`
	InterestPerInstallment decimal.Decimal `json:"interest_per_installment"`
	InstallmentTotal       decimal.Decimal `json:"installment_total"`
	TotalPayable           decimal.Decimal `json:"total_payable"`
}

// Round2 rounds a monetary amount to cents, half away from zero.
// Every amount is passed through it before it is stored or compared.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateInstallmentTerms derives the installment figures of a loan
// Formula: base = principal / n, interest = principal * rate,
// total = base + interest, payable = total * n (each step rounded to cents)
func CalculateInstallmentTerms(principal decimal.Decimal, installments int, rate decimal.Decimal) InstallmentTerms {
	count := decimal.NewFromInt(int64(installments))

	base := Round2(principal.Div(count))
	interest := Round2(principal.Mul(rate))
	total := Round2(base.Add(interest))

	return InstallmentTerms{
		BaseInstallment:        base,
		InterestPerInstallment: interest,
		InstallmentTotal:       total,
		TotalPayable:           Round2(total.Mul(count)),
	}
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDecimal returns the larger of a and b.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// DateOnly drops the clock part of t, keeping its calendar day in t's location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day as seen from loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc))
}

// IsDateOverdue reports whether dueDate lies strictly before today.
func IsDateOverdue(dueDate, today time.Time) bool {
	return DateOnly(dueDate).Before(DateOnly(today))
}
