package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/cache"
	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
	customError "github.com/segyhp/lending-fund/pkg/errors"
)

// RepairSchedules rebuilds the due dates of every loan whose installments all
// share a single due date. Each loan is repaired in its own transaction and
// loans that are already correct are left untouched.
func (s *LedgerService) RepairSchedules(ctx context.Context) (*domain.RepairResult, error) {
	ids, err := s.store.Repositories().Loans.ListIDs(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	result := &domain.RepairResult{}
	for _, loanID := range ids {
		// stop between loans; every loan already repaired stays committed
		if err := ctx.Err(); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}

		fixed, err := s.repairLoan(ctx, loanID)
		if err != nil {
			if repository.IsNotFound(err) {
				// deleted after the listing
				continue
			}
			return nil, err
		}

		result.LoansChecked++
		if fixed {
			result.LoansFixed++
			s.invalidate(ctx, cache.LoanKey(loanID))
			s.logger.Info("Loan schedule repaired", zap.String("loan_id", loanID.String()))
		}
	}

	s.logger.Info("Schedule repair finished",
		zap.Int("loans_checked", result.LoansChecked),
		zap.Int("loans_fixed", result.LoansFixed),
	)
	return result, nil
}

func (s *LedgerService) repairLoan(ctx context.Context, loanID uuid.UUID) (bool, error) {
	var (
		fixed    bool
		notFound error
	)
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		loan, err := repos.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			if repository.IsNotFound(err) {
				notFound = err
				return nil
			}
			return err
		}

		installments, err := repos.Loans.GetInstallmentsForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if !domain.HasCollapsedSchedule(installments) {
			return nil
		}

		for _, inst := range domain.RebuildDueDates(loan, installments) {
			if err := repos.Loans.UpdateInstallment(ctx, inst); err != nil {
				return err
			}
		}

		fixed = true
		return s.aggregate(ctx, repos, loan, installments)
	})
	if err != nil {
		return false, err
	}
	if notFound != nil {
		return false, notFound
	}
	return fixed, nil
}
