package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/cache"
	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
	customError "github.com/segyhp/lending-fund/pkg/errors"
	"github.com/segyhp/lending-fund/pkg/utils"
)

// GetCapital returns the capital available for new loans
func (s *LedgerService) GetCapital(ctx context.Context) (*domain.Capital, error) {
	var cached domain.Capital
	if s.readCache(ctx, cache.CapitalKey(), &cached) {
		return &cached, nil
	}

	generation := s.cacheGeneration()
	capital, err := s.store.Repositories().Capital.Get(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.writeCache(ctx, cache.CapitalKey(), capital, generation)
	return capital, nil
}

// SetCapital overwrites the capital and records the difference as a
// manual_set movement
func (s *LedgerService) SetCapital(ctx context.Context, request *domain.SetCapitalRequest) (*domain.Capital, error) {
	if request == nil || request.Amount == nil {
		return nil, customError.WrapValidation("amount is required")
	}
	if request.Amount.IsNegative() {
		return nil, customError.WrapInvalidAmount("amount", *request.Amount)
	}
	amount := utils.Round2(*request.Amount)

	var (
		result *domain.Capital
		delta  decimal.Decimal
	)
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Capital.GetForUpdate(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		delta = utils.Round2(amount.Sub(current.Amount))
		if err := repos.Capital.Update(ctx, amount, now); err != nil {
			return err
		}

		if !delta.IsZero() {
			movement := &domain.CapitalMovement{
				Type:      domain.MovementManualSet,
				Amount:    delta,
				CreatedAt: now,
			}
			if err := repos.Movements.Create(ctx, movement); err != nil {
				return err
			}
		}

		result = &domain.Capital{Amount: amount, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.CapitalKey())
	s.logger.Info("Capital set",
		zap.String("amount", amount.StringFixed(2)),
		zap.String("delta", delta.StringFixed(2)),
	)
	return result, nil
}

// AdjustCapital adds a signed delta to the capital. The result may not be
// negative.
func (s *LedgerService) AdjustCapital(ctx context.Context, request *domain.AdjustCapitalRequest) (*domain.Capital, error) {
	if request == nil || request.Delta == nil {
		return nil, customError.WrapValidation("delta is required")
	}
	delta := utils.Round2(*request.Delta)

	var result *domain.Capital
	err := s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Capital.GetForUpdate(ctx)
		if err != nil {
			return err
		}

		next := utils.Round2(current.Amount.Add(delta))
		if next.IsNegative() {
			return customError.WrapNegativeCapital(current.Amount, delta)
		}

		now := s.now()
		if err := repos.Capital.Update(ctx, next, now); err != nil {
			return err
		}

		movement := &domain.CapitalMovement{
			Type:      domain.MovementManualAdjust,
			Amount:    delta,
			Note:      request.Note,
			CreatedAt: now,
		}
		if err := repos.Movements.Create(ctx, movement); err != nil {
			return err
		}

		result = &domain.Capital{Amount: next, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cache.CapitalKey())
	s.logger.Info("Capital adjusted",
		zap.String("delta", delta.StringFixed(2)),
		zap.String("amount", result.Amount.StringFixed(2)),
	)
	return result, nil
}

// ListMovements returns the capital audit trail, newest first. A limit of
// zero selects the default page size.
func (s *LedgerService) ListMovements(ctx context.Context, limit int) ([]*domain.CapitalMovement, error) {
	switch {
	case limit < 0:
		return nil, customError.WrapValidation("limit must not be negative")
	case limit == 0:
		limit = defaultMovementsLimit
	case limit > maxMovementsLimit:
		limit = maxMovementsLimit
	}

	movements, err := s.store.Repositories().Movements.List(ctx, limit)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return movements, nil
}

// creditCapital adds amount to the locked capital and records the movement.
func (s *LedgerService) creditCapital(ctx context.Context, repos repository.Repositories, movement *domain.CapitalMovement) error {
	current, err := repos.Capital.GetForUpdate(ctx)
	if err != nil {
		return err
	}

	next := utils.Round2(current.Amount.Add(movement.Amount))
	if next.IsNegative() {
		return customError.WrapInsufficientCapital(current.Amount, movement.Amount.Neg())
	}

	if err := repos.Capital.Update(ctx, next, movement.CreatedAt); err != nil {
		return err
	}
	return repos.Movements.Create(ctx, movement)
}
