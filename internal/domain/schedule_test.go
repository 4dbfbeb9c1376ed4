package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOnOrAfter(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		expected Date
	}{
		{name: "first of month stays", date: NewDate(2026, 1, 1), expected: NewDate(2026, 1, 1)},
		{name: "early month goes to 15th", date: NewDate(2026, 1, 2), expected: NewDate(2026, 1, 15)},
		{name: "fifteenth stays", date: NewDate(2026, 1, 15), expected: NewDate(2026, 1, 15)},
		{name: "late month goes to next 1st", date: NewDate(2026, 1, 16), expected: NewDate(2026, 2, 1)},
		{name: "year rollover", date: NewDate(2026, 12, 31), expected: NewDate(2027, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected.String(), NextOnOrAfter(tt.date).String())
		})
	}
}

func TestNextStrictlyAfter(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		expected Date
	}{
		{name: "first goes to 15th", date: NewDate(2026, 3, 1), expected: NewDate(2026, 3, 15)},
		{name: "mid month goes to next 1st", date: NewDate(2026, 3, 10), expected: NewDate(2026, 4, 1)},
		{name: "fifteenth goes to next 1st", date: NewDate(2026, 3, 15), expected: NewDate(2026, 4, 1)},
		{name: "late month goes to next 15th", date: NewDate(2026, 3, 20), expected: NewDate(2026, 4, 15)},
		{name: "december rolls the year", date: NewDate(2026, 12, 15), expected: NewDate(2027, 1, 1)},
		{name: "late december rolls the year", date: NewDate(2026, 12, 16), expected: NewDate(2027, 1, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected.String(), NextStrictlyAfter(tt.date).String())
		})
	}
}

func TestBuildSchedule(t *testing.T) {
	schedule := BuildSchedule(NewDate(2026, 1, 10), 4)

	require.Len(t, schedule, 4)
	assert.Equal(t, "2026-01-15", schedule[0].String())
	assert.Equal(t, "2026-02-01", schedule[1].String())
	assert.Equal(t, "2026-02-15", schedule[2].String())
	assert.Equal(t, "2026-03-01", schedule[3].String())
}

func TestBuildSchedule_StrictlyIncreasingOnAnchorDays(t *testing.T) {
	start := NewDate(2025, 1, 1)
	for offset := 0; offset < 400; offset += 7 {
		loanDate := DateOf(start.AddDate(0, 0, offset))
		for _, n := range []int{1, 2, 5, 24} {
			schedule := BuildSchedule(loanDate, n)
			require.Len(t, schedule, n)

			assert.False(t, schedule[0].Before(loanDate), "first due date precedes loan date %s", loanDate)
			for i, due := range schedule {
				assert.Contains(t, []int{FirstAnchorDay, SecondAnchorDay}, due.Day())
				if i > 0 {
					assert.True(t, due.After(schedule[i-1]), "schedule not increasing from %s", loanDate)
				}
			}
		}
	}
}

func TestBuildSchedule_NonPositiveCount(t *testing.T) {
	assert.Empty(t, BuildSchedule(NewDate(2026, 1, 1), 0))
}

func TestHasCollapsedSchedule(t *testing.T) {
	due := NewDate(2026, 2, 1)

	assert.False(t, HasCollapsedSchedule(nil))
	assert.False(t, HasCollapsedSchedule([]*Installment{{Number: 1, DueDate: due}}))
	assert.True(t, HasCollapsedSchedule([]*Installment{
		{Number: 1, DueDate: due},
		{Number: 2, DueDate: due},
		{Number: 3, DueDate: due},
	}))
	assert.False(t, HasCollapsedSchedule([]*Installment{
		{Number: 1, DueDate: due},
		{Number: 2, DueDate: NewDate(2026, 2, 15)},
	}))
}

func TestRebuildDueDates(t *testing.T) {
	loan := &Loan{LoanDate: NewDate(2026, 1, 10), InstallmentsCount: 3}
	due := NewDate(2026, 1, 15)
	installments := []*Installment{
		{Number: 1, DueDate: due},
		{Number: 2, DueDate: due},
		{Number: 3, DueDate: due},
	}

	changed := RebuildDueDates(loan, installments)

	assert.Len(t, changed, 2)
	assert.Equal(t, "2026-01-15", installments[0].DueDate.String())
	assert.Equal(t, "2026-02-01", installments[1].DueDate.String())
	assert.Equal(t, "2026-02-15", installments[2].DueDate.String())
	assert.False(t, HasCollapsedSchedule(installments))

	// a second pass finds nothing to change
	assert.Empty(t, RebuildDueDates(loan, installments))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2026-03-15"`)))
	assert.Equal(t, time.March, d.Month())

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-15"`, string(out))

	assert.Error(t, d.UnmarshalJSON([]byte(`"15/03/2026"`)))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 5, 1, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, "2026-05-01", d.String())

	require.NoError(t, d.Scan([]byte("2026-05-15T00:00:00Z")))
	assert.Equal(t, "2026-05-15", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}
