package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/domain"
	customError "github.com/segyhp/lending-fund/pkg/errors"
	"github.com/segyhp/lending-fund/pkg/response"
)

// LedgerService is the set of operations exposed over HTTP
type LedgerService interface {
	GetCapital(ctx context.Context) (*domain.Capital, error)
	SetCapital(ctx context.Context, request *domain.SetCapitalRequest) (*domain.Capital, error)
	AdjustCapital(ctx context.Context, request *domain.AdjustCapitalRequest) (*domain.Capital, error)
	ListMovements(ctx context.Context, limit int) ([]*domain.CapitalMovement, error)

	CreateClient(ctx context.Context, request *domain.ClientRequest) (*domain.Client, error)
	ListClients(ctx context.Context) ([]*domain.Client, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*domain.ClientDetail, error)
	UpdateClient(ctx context.Context, clientID uuid.UUID, request *domain.ClientRequest) (*domain.Client, error)
	DeleteClient(ctx context.Context, clientID uuid.UUID) (*domain.DeleteClientResponse, error)

	CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetail, error)
	SetLoanStatus(ctx context.Context, loanID uuid.UUID, request *domain.SetLoanStatusRequest) error
	DeleteLoan(ctx context.Context, loanID uuid.UUID) error
	ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error)

	MakePayment(ctx context.Context, request *domain.MakePaymentRequest) (*domain.MakePaymentResponse, error)
	RepairSchedules(ctx context.Context) (*domain.RepairResult, error)
	Summary(ctx context.Context) (*domain.Summary, error)
}

type okResponse struct {
	OK bool `json:"ok"`
}

type LedgerHandler struct {
	service   LedgerService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewLedgerHandler(service LedgerService, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{
		service:   service,
		validator: NewValidator(),
		logger:    logger,
	}
}

// NewValidator returns a validator that understands decimal amounts through
// the decimal_gt and decimal_gte tags
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		return compareDecimal(fl, func(c int) bool { return c > 0 })
	})
	_ = v.RegisterValidation("decimal_gte", func(fl validator.FieldLevel) bool {
		return compareDecimal(fl, func(c int) bool { return c >= 0 })
	})
	return v
}

func compareDecimal(fl validator.FieldLevel, accept func(int) bool) bool {
	value, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	bound, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	return accept(value.Cmp(bound))
}

// decode reads a JSON body into dest and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps the error kind to its HTTP status
func (h *LedgerHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		h.logger.Error("Unclassified error", zap.String("path", r.URL.Path), zap.Error(err))
		response.InternalServerError(w, "Internal server error", nil)
		return
	}

	switch be.Kind {
	case customError.KindValidation:
		response.BadRequest(w, be.Message, be)
	case customError.KindNotFound:
		response.NotFound(w, be.Message)
	case customError.KindConflict:
		response.Conflict(w, be.Message, be)
	default:
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		response.InternalServerError(w, be.Message, nil)
	}
}

func (h *LedgerHandler) GetCapital(w http.ResponseWriter, r *http.Request) {
	capital, err := h.service.GetCapital(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, capital)
}

func (h *LedgerHandler) SetCapital(w http.ResponseWriter, r *http.Request) {
	var request domain.SetCapitalRequest
	if !h.decode(w, r, &request) {
		return
	}

	capital, err := h.service.SetCapital(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, capital)
}

func (h *LedgerHandler) AdjustCapital(w http.ResponseWriter, r *http.Request) {
	var request domain.AdjustCapitalRequest
	if !h.decode(w, r, &request) {
		return
	}

	capital, err := h.service.AdjustCapital(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, capital)
}

func (h *LedgerHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	movements, err := h.service.ListMovements(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, movements)
}

func (h *LedgerHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var request domain.ClientRequest
	if !h.decode(w, r, &request) {
		return
	}

	client, err := h.service.CreateClient(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, client)
}

func (h *LedgerHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, clients)
}

func (h *LedgerHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}

	detail, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, detail)
}

func (h *LedgerHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}

	var request domain.ClientRequest
	if !h.decode(w, r, &request) {
		return
	}

	client, err := h.service.UpdateClient(r.Context(), clientID, &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, client)
}

func (h *LedgerHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}

	result, err := h.service.DeleteClient(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if !h.decode(w, r, &request) {
		return
	}

	result, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

func (h *LedgerHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.LoanFilter{Status: query.Get("status")}

	if raw := query.Get("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid client_id", err)
			return
		}
		filter.ClientID = &clientID
	}

	loans, err := h.service.ListLoans(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, loans)
}

func (h *LedgerHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	detail, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, detail)
}

func (h *LedgerHandler) SetLoanStatus(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.SetLoanStatusRequest
	if !h.decode(w, r, &request) {
		return
	}

	if err := h.service.SetLoanStatus(r.Context(), loanID, &request); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, okResponse{OK: true})
}

func (h *LedgerHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	if err := h.service.DeleteLoan(r.Context(), loanID); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, okResponse{OK: true})
}

func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), loanID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, payments)
}

func (h *LedgerHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var request domain.MakePaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	result, err := h.service.MakePayment(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

func (h *LedgerHandler) RepairSchedules(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RepairSchedules(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, summary)
}
