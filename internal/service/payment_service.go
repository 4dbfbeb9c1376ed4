package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/cache"
	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
	customError "github.com/segyhp/lending-fund/pkg/errors"
	"github.com/segyhp/lending-fund/pkg/utils"
)

// MakePayment records money collected on a loan. A normal payment is spread
// over the installments in order, starting at the targeted installment when
// one is given. A payoff settles the loan by charging only the principal that
// is still outstanding.
func (s *LedgerService) MakePayment(ctx context.Context, request *domain.MakePaymentRequest) (*domain.MakePaymentResponse, error) {
	if request == nil {
		return nil, customError.WrapValidation("request body is required")
	}
	if request.LoanID == nil && request.InstallmentID == nil {
		return nil, customError.WrapValidation("loan_id or installment_id is required")
	}

	var amount decimal.Decimal
	if !request.Payoff {
		if request.Amount == nil {
			return nil, customError.WrapValidation("amount is required")
		}
		amount = utils.Round2(*request.Amount)
		if !amount.IsPositive() {
			return nil, customError.WrapInvalidAmount("amount", *request.Amount)
		}
	}

	paymentDate := request.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.today()
	}

	var (
		payment   *domain.Payment
		remainder decimal.Decimal
	)
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var (
			loanID        uuid.UUID
			installmentID uuid.NullUUID
		)
		if request.InstallmentID != nil {
			target, err := repos.Loans.GetInstallmentByID(ctx, *request.InstallmentID)
			if err != nil {
				return notFoundOr(err, customError.WrapInstallmentNotFound(request.InstallmentID.String()))
			}
			loanID = target.LoanID
			installmentID = uuid.NullUUID{UUID: target.ID, Valid: true}
		} else {
			loanID = *request.LoanID
		}

		loan, err := repos.Loans.GetByIDForUpdate(ctx, loanID)
		if err != nil {
			return notFoundOr(err, customError.WrapLoanNotFound(loanID.String()))
		}

		installments, err := repos.Loans.GetInstallmentsForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		pending := domain.PendingFromInstallments(installments)
		if !pending.IsPositive() {
			return customError.WrapLoanAlreadyPaid(loanID.String())
		}

		var (
			touched     []*domain.Installment
			paymentType = domain.PaymentTypeRegular
			movement    = domain.MovementPayment
		)
		if request.Payoff {
			paymentType = domain.PaymentTypePayoff
			movement = domain.MovementPayoff
			installmentID = uuid.NullUUID{}

			amount, touched = domain.ApplyPayoff(loan, installments, paymentDate)
			if !amount.IsPositive() {
				return customError.WrapLoanAlreadyPaid(loanID.String())
			}
		} else {
			if amount.GreaterThan(pending) {
				return customError.WrapAmountExceedsPending(amount, pending)
			}

			fromNumber := 0
			if installmentID.Valid {
				for _, inst := range installments {
					if inst.ID == installmentID.UUID {
						fromNumber = inst.Number
						break
					}
				}
			}
			touched, remainder = domain.ApplyPayment(installments, amount, fromNumber, paymentDate)
		}

		for _, inst := range touched {
			if err := repos.Loans.UpdateInstallment(ctx, inst); err != nil {
				return err
			}
		}

		now := s.now()
		payment = &domain.Payment{
			ID:            uuid.New(),
			ClientID:      loan.ClientID,
			LoanID:        loan.ID,
			InstallmentID: installmentID,
			PaymentDate:   paymentDate,
			Amount:        amount,
			Type:          paymentType,
			Notes:         request.Notes,
			CreatedAt:     now,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}

		collection := &domain.CapitalMovement{
			Type:      movement,
			Amount:    amount,
			LoanID:    uuid.NullUUID{UUID: loan.ID, Valid: true},
			PaymentID: uuid.NullUUID{UUID: payment.ID, Valid: true},
			CreatedAt: now,
		}
		if err := s.creditCapital(ctx, repos, collection); err != nil {
			return err
		}

		if request.Payoff {
			// the payoff rewrote total_payable, which aggregation never touches
			loan.UpdatedAt = now
			if err := repos.Loans.UpdateTotals(ctx, loan); err != nil {
				return err
			}
		}
		return s.aggregate(ctx, repos, loan, installments)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.CapitalKey(), cache.LoanKey(payment.LoanID))

	if remainder.IsPositive() {
		// the payment row and the capital movement carry the full amount
		s.logger.Warn("Payment collected money that is not reflected on the loan",
			zap.String("loan_id", payment.LoanID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.String("collected", payment.Amount.StringFixed(2)),
			zap.String("applied", payment.Amount.Sub(remainder).StringFixed(2)),
			zap.String("unapplied", remainder.StringFixed(2)),
		)
	}
	s.logger.Info("Payment recorded",
		zap.String("loan_id", payment.LoanID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("type", payment.Type),
		zap.String("amount", payment.Amount.StringFixed(2)),
	)
	return &domain.MakePaymentResponse{ID: payment.ID, Amount: payment.Amount}, nil
}
