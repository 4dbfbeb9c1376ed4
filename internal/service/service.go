package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/cache"
	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
	customError "github.com/segyhp/lending-fund/pkg/errors"
	"github.com/segyhp/lending-fund/pkg/utils"
)

const (
	defaultMovementsLimit = 50
	maxMovementsLimit     = 500
)

// LedgerService owns every mutation of the fund: capital, loans, payments and
// the cascade deletes. Each mutation runs as one transaction on the store.
type LedgerService struct {
	store    repository.Store
	cache    cache.Cache
	logger   *zap.Logger
	rate     decimal.Decimal
	location *time.Location
	now      func() time.Time

	// generation counts cache invalidations; fills racing one are dropped
	generation atomic.Uint64
}

// Option configures a LedgerService
type Option func(*LedgerService)

// WithInterestRate sets the flat interest charged per installment
func WithInterestRate(rate decimal.Decimal) Option {
	return func(s *LedgerService) {
		s.rate = rate
	}
}

// WithLocation sets the time zone that decides the current business day
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) {
		s.now = now
	}
}

// WithCache enables read-through caching of capital and loan details
func WithCache(c cache.Cache) Option {
	return func(s *LedgerService) {
		s.cache = c
	}
}

func NewLedgerService(store repository.Store, logger *zap.Logger, opts ...Option) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &LedgerService{
		store:    store,
		logger:   logger,
		rate:     utils.DefaultInterestPerInstallment,
		location: time.UTC,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *LedgerService) today() domain.Date {
	return domain.DateOf(utils.Today(s.now(), s.location))
}

// inTx runs fn as one unit of work. The transaction and every statement in
// it run on a context detached from the caller's cancellation, so a started
// unit of work is never cut short; fn must use the context it is given.
// Errors that are not already classified are reported as storage failures.
func (s *LedgerService) inTx(ctx context.Context, fn func(context.Context, repository.Repositories) error) error {
	err := s.store.WithinTx(context.WithoutCancel(ctx), fn)
	if err == nil {
		return nil
	}
	if customError.IsBusinessError(err) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

// notFoundOr maps a missing row to notFound and anything else to a storage
// failure.
func notFoundOr(err error, notFound *customError.BusinessError) error {
	if repository.IsNotFound(err) {
		return notFound
	}
	return customError.WrapDatabaseError(err)
}

func (s *LedgerService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

// cacheGeneration must be read before the database read whose result is
// passed to writeCache.
func (s *LedgerService) cacheGeneration() uint64 {
	return s.generation.Load()
}

// writeCache stores a snapshot read at generation. When an invalidation ran
// since then the snapshot may predate that mutation, so it is removed again.
// The check follows the write: an invalidation landing after it deletes the
// key itself.
func (s *LedgerService) writeCache(ctx context.Context, key string, value interface{}, generation uint64) {
	if s.cache == nil {
		return
	}
	if s.generation.Load() != generation {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if s.generation.Load() != generation {
		s.logger.Debug("Dropping cache fill raced by a mutation", zap.String("key", key))
		if err := s.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *LedgerService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	s.generation.Add(1)
	if err := s.cache.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
