package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/cache"
	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
	customError "github.com/segyhp/lending-fund/pkg/errors"
	"github.com/segyhp/lending-fund/pkg/utils"
)

// cachedLoanDetail is a loan detail together with the business day it was
// refreshed on. Statuses depend on the day, so an entry from another day is
// stale.
type cachedLoanDetail struct {
	AsOf   domain.Date        `json:"as_of"`
	Detail *domain.LoanDetail `json:"detail"`
}

// CreateLoan disburses a loan from the capital and lays out its installment
// schedule
func (s *LedgerService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	if err := validateCreateLoan(request); err != nil {
		return nil, err
	}

	var loan *domain.Loan
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Clients.GetByID(ctx, request.ClientID); err != nil {
			return notFoundOr(err, customError.WrapClientNotFound(request.ClientID.String()))
		}

		now := s.now()
		loan = domain.NewLoan(request, s.rate, now)
		if err := repos.Loans.Create(ctx, loan); err != nil {
			return err
		}

		installments := domain.NewInstallments(loan, now)
		if err := repos.Loans.CreateInstallments(ctx, installments); err != nil {
			return err
		}

		disbursement := &domain.CapitalMovement{
			Type:      domain.MovementLoan,
			Amount:    loan.Amount.Neg(),
			LoanID:    uuid.NullUUID{UUID: loan.ID, Valid: true},
			CreatedAt: now,
		}
		if err := s.creditCapital(ctx, repos, disbursement); err != nil {
			return err
		}

		return s.aggregate(ctx, repos, loan, installments)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.CapitalKey())
	s.logger.Info("Loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("client_id", loan.ClientID.String()),
		zap.String("amount", loan.Amount.StringFixed(2)),
		zap.Int("installments", loan.InstallmentsCount),
		zap.String("total_payable", loan.TotalPayable.StringFixed(2)),
	)
	return &domain.CreateLoanResponse{ID: loan.ID}, nil
}

func validateCreateLoan(request *domain.CreateLoanRequest) error {
	if request == nil {
		return customError.WrapValidation("request body is required")
	}
	if request.ClientID == uuid.Nil {
		return customError.WrapValidation("client_id is required")
	}
	if request.LoanDate.IsZero() {
		return customError.WrapValidation("loan_date is required")
	}
	if request.InstallmentsCount < 1 {
		return customError.WrapValidation("installments_count must be at least 1")
	}
	if amount := utils.Round2(request.Amount); !amount.IsPositive() {
		return customError.WrapInvalidAmount("amount", request.Amount)
	}
	return nil
}

// ListLoans returns loans matching the filter, newest first
func (s *LedgerService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	if filter.Status != "" && !domain.ValidLoanStatus(filter.Status) {
		return nil, customError.WrapValidation("unknown loan status " + filter.Status)
	}

	loans, err := s.store.Repositories().Loans.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loans, nil
}

// GetLoan returns a loan with its installments and payments, refreshed
// against the current day
func (s *LedgerService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetail, error) {
	today := s.today()

	var cached cachedLoanDetail
	if s.readCache(ctx, cache.LoanKey(loanID), &cached) && cached.Detail != nil && cached.AsOf.Equal(today) {
		return cached.Detail, nil
	}

	generation := s.cacheGeneration()
	var detail *domain.LoanDetail
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		loan, installments, err := s.refreshLoan(ctx, repos, loanID)
		if err != nil {
			return notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
		}

		payments, err := repos.Payments.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}

		detail = &domain.LoanDetail{
			Loan:         loan,
			Installments: installments,
			Payments:     payments,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, cache.LoanKey(loanID), cachedLoanDetail{AsOf: today, Detail: detail}, generation)
	return detail, nil
}

// SetLoanStatus overrides the status of a loan without recomputing it. The
// next refresh of the loan derives the status from its installments again.
func (s *LedgerService) SetLoanStatus(ctx context.Context, loanID uuid.UUID, request *domain.SetLoanStatusRequest) error {
	if request == nil || !domain.ValidLoanStatus(request.Status) {
		return customError.WrapValidation("status must be one of Activo, Finalizado, En mora")
	}

	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Loans.UpdateStatus(ctx, loanID, request.Status); err != nil {
			return notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, cache.LoanKey(loanID))
	s.logger.Warn("Loan status overridden manually",
		zap.String("loan_id", loanID.String()),
		zap.String("status", request.Status),
	)
	return nil
}

// ListPayments returns the payments recorded on a loan
func (s *LedgerService) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	repos := s.store.Repositories()

	if _, err := repos.Loans.GetByID(ctx, loanID); err != nil {
		return nil, notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
	}

	payments, err := repos.Payments.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// Summary aggregates the loan book for the dashboard
func (s *LedgerService) Summary(ctx context.Context) (*domain.Summary, error) {
	var summary *domain.Summary
	// every movement is written under the capital row lock, so holding it
	// keeps the capital and the movement total from the same moment
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		capital, err := repos.Capital.GetForUpdate(ctx)
		if err != nil {
			return err
		}

		summary, err = repos.Loans.Summary(ctx)
		if err != nil {
			return err
		}

		total, err := repos.Movements.Sum(ctx)
		if err != nil {
			return err
		}

		summary.Capital = capital.Amount
		summary.MovementsTotal = total
		summary.UnreconciledCapital = utils.Round2(capital.Amount.Sub(total))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
