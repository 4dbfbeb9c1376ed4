package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/mocks"
	customError "github.com/segyhp/lending-fund/pkg/errors"
)

func TestLedgerService_StorageErrors(t *testing.T) {
	connErr := errors.New("connection refused")
	loanID := uuid.New()

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockStore, *mocks.MockCapitalRepository, *mocks.MockLoanRepository, *mocks.MockPaymentRepository)
		call       func(*LedgerService) error
		kind       customError.Kind
	}{
		{
			name: "capital read failure",
			setupMocks: func(store *mocks.MockStore, capital *mocks.MockCapitalRepository, _ *mocks.MockLoanRepository, _ *mocks.MockPaymentRepository) {
				capital.On("Get", mock.Anything).Return(nil, connErr)
			},
			call: func(s *LedgerService) error {
				_, err := s.GetCapital(context.Background())
				return err
			},
			kind: customError.KindStorage,
		},
		{
			name: "transaction cannot begin",
			setupMocks: func(store *mocks.MockStore, _ *mocks.MockCapitalRepository, _ *mocks.MockLoanRepository, _ *mocks.MockPaymentRepository) {
				store.On("WithinTx", mock.Anything).Return(connErr)
			},
			call: func(s *LedgerService) error {
				_, err := s.SetCapital(context.Background(), &domain.SetCapitalRequest{Amount: decPtr("10")})
				return err
			},
			kind: customError.KindStorage,
		},
		{
			name: "capital update failure",
			setupMocks: func(store *mocks.MockStore, capital *mocks.MockCapitalRepository, _ *mocks.MockLoanRepository, _ *mocks.MockPaymentRepository) {
				store.On("WithinTx", mock.Anything).Return(nil)
				capital.On("GetForUpdate", mock.Anything).Return(&domain.Capital{Amount: decimal.NewFromInt(5)}, nil)
				capital.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(connErr)
			},
			call: func(s *LedgerService) error {
				_, err := s.AdjustCapital(context.Background(), &domain.AdjustCapitalRequest{Delta: decPtr("1")})
				return err
			},
			kind: customError.KindStorage,
		},
		{
			name: "missing loan on payments listing",
			setupMocks: func(_ *mocks.MockStore, _ *mocks.MockCapitalRepository, loans *mocks.MockLoanRepository, _ *mocks.MockPaymentRepository) {
				loans.On("GetByID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)
			},
			call: func(s *LedgerService) error {
				_, err := s.ListPayments(context.Background(), loanID)
				return err
			},
			kind: customError.KindNotFound,
		},
		{
			name: "payments listing failure",
			setupMocks: func(_ *mocks.MockStore, _ *mocks.MockCapitalRepository, loans *mocks.MockLoanRepository, payments *mocks.MockPaymentRepository) {
				loans.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{ID: loanID}, nil)
				payments.On("GetByLoanID", mock.Anything, loanID).Return(nil, connErr)
			},
			call: func(s *LedgerService) error {
				_, err := s.ListPayments(context.Background(), loanID)
				return err
			},
			kind: customError.KindStorage,
		},
		{
			name: "repair listing failure",
			setupMocks: func(_ *mocks.MockStore, _ *mocks.MockCapitalRepository, loans *mocks.MockLoanRepository, _ *mocks.MockPaymentRepository) {
				loans.On("ListIDs", mock.Anything).Return(nil, connErr)
			},
			call: func(s *LedgerService) error {
				_, err := s.RepairSchedules(context.Background())
				return err
			},
			kind: customError.KindStorage,
		},
		{
			name: "summary failure",
			setupMocks: func(store *mocks.MockStore, capital *mocks.MockCapitalRepository, loans *mocks.MockLoanRepository, _ *mocks.MockPaymentRepository) {
				store.On("WithinTx", mock.Anything).Return(nil)
				capital.On("GetForUpdate", mock.Anything).Return(&domain.Capital{Amount: decimal.Zero}, nil)
				loans.On("Summary", mock.Anything).Return(nil, connErr)
			},
			call: func(s *LedgerService) error {
				_, err := s.Summary(context.Background())
				return err
			},
			kind: customError.KindStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, capital, _, _, loans, payments := mocks.NewMockStore()
			tt.setupMocks(store, capital, loans, payments)

			svc := NewLedgerService(store, nil)
			err := tt.call(svc)

			require.Error(t, err)
			assert.Equal(t, tt.kind, customError.KindOf(err))
			store.AssertExpectations(t)
			capital.AssertExpectations(t)
			loans.AssertExpectations(t)
			payments.AssertExpectations(t)
		})
	}
}

func TestLedgerService_TransactionIsDetachedFromCancellation(t *testing.T) {
	store, capital, movements, _, _, _ := mocks.NewMockStore()
	store.On("WithinTx", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	})).Return(nil)
	live := mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	})
	capital.On("GetForUpdate", live).Return(&domain.Capital{Amount: decimal.Zero}, nil)
	capital.On("Update", live, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(25))
	}), mock.Anything).Return(nil)
	movements.On("Create", live, mock.MatchedBy(func(mv *domain.CapitalMovement) bool {
		return mv.Type == domain.MovementManualSet && mv.Amount.Equal(decimal.NewFromInt(25))
	})).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := NewLedgerService(store, nil, WithClock(func() time.Time { return fixed }))

	result, err := svc.SetCapital(ctx, &domain.SetCapitalRequest{Amount: decPtr("25")})
	require.NoError(t, err)
	assert.Equal(t, fixed, result.UpdatedAt)
	store.AssertExpectations(t)
	capital.AssertExpectations(t)
	movements.AssertExpectations(t)
}

func TestLedgerService_SummaryReconcilesMovements(t *testing.T) {
	store, capital, movements, _, loans, _ := mocks.NewMockStore()
	store.On("WithinTx", mock.Anything).Return(nil)
	capital.On("GetForUpdate", mock.Anything).Return(&domain.Capital{Amount: decimal.RequireFromString("900.50")}, nil)
	loans.On("Summary", mock.Anything).Return(&domain.Summary{ActiveLoans: 2, Clients: 1}, nil)
	movements.On("Sum", mock.Anything).Return(decimal.RequireFromString("1000.50"), nil)

	svc := NewLedgerService(store, nil)
	summary, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.ActiveLoans)
	assert.True(t, summary.Capital.Equal(decimal.RequireFromString("900.50")))
	assert.True(t, summary.MovementsTotal.Equal(decimal.RequireFromString("1000.50")))
	assert.True(t, summary.UnreconciledCapital.Equal(decimal.NewFromInt(-100)))
	store.AssertExpectations(t)
	capital.AssertExpectations(t)
	movements.AssertExpectations(t)
}
