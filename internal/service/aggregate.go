package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
)

// refreshLoan locks a loan with its installments and brings statuses and
// totals up to date.
func (s *LedgerService) refreshLoan(ctx context.Context, repos repository.Repositories, loanID uuid.UUID) (*domain.Loan, []*domain.Installment, error) {
	loan, err := repos.Loans.GetByIDForUpdate(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	installments, err := repos.Loans.GetInstallmentsForUpdate(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.aggregate(ctx, repos, loan, installments); err != nil {
		return nil, nil, err
	}
	return loan, installments, nil
}

// aggregate re-evaluates installment statuses against today and stores the
// loan's paid and pending totals and status. The loan and installments must
// already be locked by the caller.
func (s *LedgerService) aggregate(ctx context.Context, repos repository.Repositories, loan *domain.Loan, installments []*domain.Installment) error {
	totals, changed := domain.Aggregate(installments, s.today())

	for _, inst := range changed {
		if err := repos.Loans.UpdateInstallment(ctx, inst); err != nil {
			return err
		}
	}

	if len(changed) == 0 &&
		loan.PaidTotal.Equal(totals.PaidTotal) &&
		loan.PendingTotal.Equal(totals.PendingTotal) &&
		loan.Status == totals.Status {
		return nil
	}

	loan.Apply(totals)
	loan.UpdatedAt = s.now()
	return repos.Loans.UpdateTotals(ctx, loan)
}
