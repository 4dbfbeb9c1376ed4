package domain

// Installments fall due on two anchor days of every month.
const (
	FirstAnchorDay  = 1
	SecondAnchorDay = 15
)

// NextOnOrAfter returns the first anchor day that is not earlier than d.
func NextOnOrAfter(d Date) Date {
	year, month, day := d.Date()
	switch {
	case day <= FirstAnchorDay:
		return NewDate(year, month, FirstAnchorDay)
	case day <= SecondAnchorDay:
		return NewDate(year, month, SecondAnchorDay)
	default:
		return NewDate(year, month+1, FirstAnchorDay)
	}
}

// NextStrictlyAfter returns the first anchor day later than d.
func NextStrictlyAfter(d Date) Date {
	year, month, day := d.Date()
	switch {
	case day <= FirstAnchorDay:
		return NewDate(year, month, SecondAnchorDay)
	case day <= SecondAnchorDay:
		return NewDate(year, month+1, FirstAnchorDay)
	default:
		return NewDate(year, month+1, SecondAnchorDay)
	}
}

// BuildSchedule returns the n due dates of a loan disbursed on loanDate,
// ordered by installment number.
func BuildSchedule(loanDate Date, n int) []Date {
	if n <= 0 {
		return nil
	}

	dates := make([]Date, 0, n)
	due := NextOnOrAfter(loanDate)
	for i := 0; i < n; i++ {
		dates = append(dates, due)
		due = NextStrictlyAfter(due)
	}
	return dates
}

// HasCollapsedSchedule reports whether a loan's installments were stored with
// one shared due date, which happens when the schedule was never expanded.
func HasCollapsedSchedule(installments []*Installment) bool {
	if len(installments) <= 1 {
		return false
	}

	first := installments[0].DueDate
	for _, inst := range installments[1:] {
		if !inst.DueDate.Equal(first) {
			return false
		}
	}
	return true
}

// RebuildDueDates overwrites the due date of every installment from a fresh
// schedule. Installments are matched by number.
func RebuildDueDates(loan *Loan, installments []*Installment) []*Installment {
	schedule := BuildSchedule(loan.LoanDate, loan.InstallmentsCount)

	changed := make([]*Installment, 0, len(installments))
	for _, inst := range installments {
		idx := inst.Number - 1
		if idx < 0 || idx >= len(schedule) {
			continue
		}
		if inst.DueDate.Equal(schedule[idx]) {
			continue
		}
		inst.DueDate = schedule[idx]
		changed = append(changed, inst)
	}
	return changed
}
