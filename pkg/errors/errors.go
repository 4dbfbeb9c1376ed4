package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrInstallmentNotFound  = errors.New("installment not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInsufficientCapital  = errors.New("insufficient capital")
	ErrNegativeCapital      = errors.New("capital cannot go negative")
	ErrLoanAlreadyPaid      = errors.New("loan is already paid")
	ErrAmountExceedsPending = errors.New("amount exceeds pending balance")
	ErrStorage              = errors.New("storage failure")
)

// Kind classifies a BusinessError for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// BusinessError represents a business logic error
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(kind Kind, code, message string, err error) *BusinessError {
	return &BusinessError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first BusinessError in err's chain, or
// KindStorage for anything unclassified.
func KindOf(err error) Kind {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindStorage
}

// IsBusinessError reports whether err already carries a classification.
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

// Error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeInstallmentNotFound  = "INSTALLMENT_NOT_FOUND"
	ErrCodeClientNotFound       = "CLIENT_NOT_FOUND"
	ErrCodeInsufficientCapital  = "INSUFFICIENT_CAPITAL"
	ErrCodeNegativeCapital      = "NEGATIVE_CAPITAL"
	ErrCodeLoanAlreadyPaid      = "LOAN_ALREADY_PAID"
	ErrCodeAmountExceedsPending = "AMOUNT_EXCEEDS_PENDING"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
)

// Wrap common errors with business context
func WrapValidation(message string) *BusinessError {
	return NewBusinessError(KindValidation, ErrCodeValidation, message, ErrInvalidRequest)
}

func WrapInvalidAmount(field string, amount decimal.Decimal) *BusinessError {
	return NewBusinessError(
		KindValidation,
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid %s: %s", field, amount.StringFixed(2)),
		ErrInvalidAmount,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeInstallmentNotFound,
		fmt.Sprintf("Installment with ID %s not found", installmentID),
		ErrInstallmentNotFound,
	)
}

func WrapClientNotFound(clientID string) *BusinessError {
	return NewBusinessError(
		KindNotFound,
		ErrCodeClientNotFound,
		fmt.Sprintf("Client with ID %s not found", clientID),
		ErrClientNotFound,
	)
}

func WrapInsufficientCapital(available, requested decimal.Decimal) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeInsufficientCapital,
		fmt.Sprintf("Available capital %s is not enough to lend %s", available.StringFixed(2), requested.StringFixed(2)),
		ErrInsufficientCapital,
	)
}

func WrapNegativeCapital(current, delta decimal.Decimal) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeNegativeCapital,
		fmt.Sprintf("Adjusting capital %s by %s would leave it negative", current.StringFixed(2), delta.StringFixed(2)),
		ErrNegativeCapital,
	)
}

func WrapLoanAlreadyPaid(loanID string) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeLoanAlreadyPaid,
		fmt.Sprintf("Loan with ID %s is already paid", loanID),
		ErrLoanAlreadyPaid,
	)
}

func WrapAmountExceedsPending(amount, pending decimal.Decimal) *BusinessError {
	return NewBusinessError(
		KindConflict,
		ErrCodeAmountExceedsPending,
		fmt.Sprintf("Payment amount %s exceeds pending balance %s", amount.StringFixed(2), pending.StringFixed(2)),
		ErrAmountExceedsPending,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		KindStorage,
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrStorage, err),
	)
}
