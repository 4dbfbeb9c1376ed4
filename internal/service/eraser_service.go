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

// DeleteLoan removes a loan with its installments, payments and the capital
// movements that reference it. The capital amount itself is left as is.
func (s *LedgerService) DeleteLoan(ctx context.Context, loanID uuid.UUID) error {
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Loans.GetByIDForUpdate(ctx, loanID); err != nil {
			return notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
		}
		return eraseLoan(ctx, repos, loanID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, cache.LoanKey(loanID))
	s.logger.Info("Loan deleted", zap.String("loan_id", loanID.String()))
	return nil
}

// DeleteClient removes a client and every loan it owns in one transaction
func (s *LedgerService) DeleteClient(ctx context.Context, clientID uuid.UUID) (*domain.DeleteClientResponse, error) {
	var loanIDs []uuid.UUID
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Clients.GetByIDForUpdate(ctx, clientID); err != nil {
			return notFoundOr(err, customError.WrapClientNotFound(clientID.String()))
		}

		loans, err := repos.Loans.List(ctx, domain.LoanFilter{ClientID: &clientID})
		if err != nil {
			return err
		}

		for _, loan := range loans {
			if _, err := repos.Loans.GetByIDForUpdate(ctx, loan.ID); err != nil {
				return err
			}
			if err := eraseLoan(ctx, repos, loan.ID); err != nil {
				return err
			}
			loanIDs = append(loanIDs, loan.ID)
		}

		return repos.Clients.Delete(ctx, clientID)
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(loanIDs))
	for _, id := range loanIDs {
		keys = append(keys, cache.LoanKey(id))
	}
	s.invalidate(ctx, keys...)

	s.logger.Info("Client deleted",
		zap.String("client_id", clientID.String()),
		zap.Int("deleted_loans", len(loanIDs)),
	)
	return &domain.DeleteClientResponse{OK: true, DeletedLoans: len(loanIDs)}, nil
}

// eraseLoan deletes a loan's dependents before the loan itself so no row is
// ever left pointing at a missing parent.
func eraseLoan(ctx context.Context, repos repository.Repositories, loanID uuid.UUID) error {
	if _, err := repos.Movements.DeleteByLoan(ctx, loanID); err != nil {
		return err
	}
	if _, err := repos.Payments.DeleteByLoan(ctx, loanID); err != nil {
		return err
	}
	if _, err := repos.Loans.DeleteInstallments(ctx, loanID); err != nil {
		return err
	}
	return repos.Loans.Delete(ctx, loanID)
}
