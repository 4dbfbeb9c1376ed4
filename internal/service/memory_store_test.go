package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
)

// memoryStore is an in-memory repository.Store. Transactions are serialized
// and restore a snapshot of every table when they fail.
type memoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	state  memoryState
	failOn map[string]error
}

type memoryState struct {
	capital        domain.Capital
	movements      []domain.CapitalMovement
	nextMovementID int64
	clients        map[uuid.UUID]domain.Client
	loans          map[uuid.UUID]domain.Loan
	loanOrder      []uuid.UUID
	installments   map[uuid.UUID]domain.Installment
	payments       map[uuid.UUID]domain.Payment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		state: memoryState{
			capital:      domain.Capital{Amount: decimal.Zero},
			clients:      map[uuid.UUID]domain.Client{},
			loans:        map[uuid.UUID]domain.Loan{},
			installments: map[uuid.UUID]domain.Installment{},
			payments:     map[uuid.UUID]domain.Payment{},
		},
		failOn: map[string]error{},
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		capital:        s.capital,
		movements:      append([]domain.CapitalMovement(nil), s.movements...),
		nextMovementID: s.nextMovementID,
		clients:        make(map[uuid.UUID]domain.Client, len(s.clients)),
		loans:          make(map[uuid.UUID]domain.Loan, len(s.loans)),
		loanOrder:      append([]uuid.UUID(nil), s.loanOrder...),
		installments:   make(map[uuid.UUID]domain.Installment, len(s.installments)),
		payments:       make(map[uuid.UUID]domain.Payment, len(s.payments)),
	}
	for k, v := range s.clients {
		out.clients[k] = v
	}
	for k, v := range s.loans {
		out.loans[k] = v
	}
	for k, v := range s.installments {
		out.installments[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = v
	}
	return out
}

// failWith makes the named repository call return err.
func (m *memoryStore) failWith(call string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[call] = err
}

// check fails a call made with a cancelled context, or one registered with
// failWith.
func (m *memoryStore) check(ctx context.Context, call string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", call, err)
	}
	if err, ok := m.failOn[call]; ok {
		return err
	}
	return nil
}

func (m *memoryStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Capital:   &memCapital{m},
		Movements: &memMovements{m},
		Clients:   &memClients{m},
		Loans:     &memLoans{m},
		Payments:  &memPayments{m},
	}
}

func (m *memoryStore) WithinTx(ctx context.Context, fn func(context.Context, repository.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snapshot)
			panic(p)
		}
		if err != nil {
			m.restore(snapshot)
		}
	}()

	return fn(ctx, m.Repositories())
}

func (m *memoryStore) restore(snapshot memoryState) {
	m.mu.Lock()
	m.state = snapshot
	m.mu.Unlock()
}

func (m *memoryStore) Ping(context.Context) error {
	return nil
}

func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, sql.ErrNoRows)
}

// snapshot accessors for assertions

func (m *memoryStore) capitalAmount() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.capital.Amount
}

func (m *memoryStore) movementList() []domain.CapitalMovement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CapitalMovement(nil), m.state.movements...)
}

func (m *memoryStore) movementSum() decimal.Decimal {
	total := decimal.Zero
	for _, mv := range m.movementList() {
		total = total.Add(mv.Amount)
	}
	return total
}

func (m *memoryStore) installmentsOf(loanID uuid.UUID) []domain.Installment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Installment
	for _, inst := range m.state.installments {
		if inst.LoanID == loanID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (m *memoryStore) paymentCount(loanID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.state.payments {
		if p.LoanID == loanID {
			n++
		}
	}
	return n
}

func (m *memoryStore) loan(loanID uuid.UUID) (domain.Loan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.state.loans[loanID]
	return loan, ok
}

func (m *memoryStore) setDueDate(installmentID uuid.UUID, due domain.Date) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst := m.state.installments[installmentID]
	inst.DueDate = due
	m.state.installments[installmentID] = inst
}

type memCapital struct{ m *memoryStore }

func (r *memCapital) Get(ctx context.Context) (*domain.Capital, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Capital.Get"); err != nil {
		return nil, err
	}
	capital := r.m.state.capital
	return &capital, nil
}

func (r *memCapital) GetForUpdate(ctx context.Context) (*domain.Capital, error) {
	return r.Get(ctx)
}

func (r *memCapital) Update(ctx context.Context, amount decimal.Decimal, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Capital.Update"); err != nil {
		return err
	}
	r.m.state.capital = domain.Capital{Amount: amount, UpdatedAt: at}
	return nil
}

type memMovements struct{ m *memoryStore }

func (r *memMovements) Create(ctx context.Context, movement *domain.CapitalMovement) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Movements.Create"); err != nil {
		return err
	}
	r.m.state.nextMovementID++
	movement.ID = r.m.state.nextMovementID
	r.m.state.movements = append(r.m.state.movements, *movement)
	return nil
}

func (r *memMovements) List(_ context.Context, limit int) ([]*domain.CapitalMovement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]*domain.CapitalMovement, 0, len(r.m.state.movements))
	for i := len(r.m.state.movements) - 1; i >= 0 && len(out) < limit; i-- {
		mv := r.m.state.movements[i]
		out = append(out, &mv)
	}
	return out, nil
}

func (r *memMovements) Sum(context.Context) (decimal.Decimal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	total := decimal.Zero
	for _, mv := range r.m.state.movements {
		total = total.Add(mv.Amount)
	}
	return total, nil
}

func (r *memMovements) DeleteByLoan(ctx context.Context, loanID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Movements.DeleteByLoan"); err != nil {
		return 0, err
	}

	kept := r.m.state.movements[:0:0]
	var deleted int64
	for _, mv := range r.m.state.movements {
		ofLoan := mv.LoanID.Valid && mv.LoanID.UUID == loanID
		if mv.PaymentID.Valid {
			if p, ok := r.m.state.payments[mv.PaymentID.UUID]; ok && p.LoanID == loanID {
				ofLoan = true
			}
		}
		if ofLoan {
			deleted++
			continue
		}
		kept = append(kept, mv)
	}
	r.m.state.movements = kept
	return deleted, nil
}

type memClients struct{ m *memoryStore }

func (r *memClients) Create(ctx context.Context, client *domain.Client) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Clients.Create"); err != nil {
		return err
	}
	r.m.state.clients[client.ID] = *client
	return nil
}

func (r *memClients) GetByID(_ context.Context, clientID uuid.UUID) (*domain.Client, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	client, ok := r.m.state.clients[clientID]
	if !ok {
		return nil, notFound("client")
	}
	return &client, nil
}

func (r *memClients) GetByIDForUpdate(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	return r.GetByID(ctx, clientID)
}

func (r *memClients) List(context.Context) ([]*domain.Client, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]*domain.Client, 0, len(r.m.state.clients))
	for _, c := range r.m.state.clients {
		client := c
		out = append(out, &client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *memClients) Update(_ context.Context, client *domain.Client) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.clients[client.ID]; !ok {
		return notFound("client")
	}
	r.m.state.clients[client.ID] = *client
	return nil
}

func (r *memClients) Delete(ctx context.Context, clientID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Clients.Delete"); err != nil {
		return err
	}
	if _, ok := r.m.state.clients[clientID]; !ok {
		return notFound("client")
	}
	delete(r.m.state.clients, clientID)
	return nil
}

type memLoans struct{ m *memoryStore }

func (r *memLoans) Create(ctx context.Context, loan *domain.Loan) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Loans.Create"); err != nil {
		return err
	}
	r.m.state.loans[loan.ID] = *loan
	r.m.state.loanOrder = append(r.m.state.loanOrder, loan.ID)
	return nil
}

func (r *memLoans) GetByID(_ context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	loan, ok := r.m.state.loans[loanID]
	if !ok {
		return nil, notFound("loan")
	}
	return &loan, nil
}

func (r *memLoans) GetByIDForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.GetByID(ctx, loanID)
}

func (r *memLoans) List(_ context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*domain.Loan
	for i := len(r.m.state.loanOrder) - 1; i >= 0; i-- {
		loan := r.m.state.loans[r.m.state.loanOrder[i]]
		if filter.ClientID != nil && loan.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		out = append(out, &loan)
	}
	return out, nil
}

func (r *memLoans) ListIDs(context.Context) ([]uuid.UUID, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]uuid.UUID(nil), r.m.state.loanOrder...), nil
}

func (r *memLoans) UpdateTotals(ctx context.Context, loan *domain.Loan) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Loans.UpdateTotals"); err != nil {
		return err
	}
	stored, ok := r.m.state.loans[loan.ID]
	if !ok {
		return notFound("loan")
	}
	stored.TotalPayable = loan.TotalPayable
	stored.PaidTotal = loan.PaidTotal
	stored.PendingTotal = loan.PendingTotal
	stored.Status = loan.Status
	stored.UpdatedAt = loan.UpdatedAt
	r.m.state.loans[loan.ID] = stored
	return nil
}

func (r *memLoans) UpdateStatus(_ context.Context, loanID uuid.UUID, status string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.state.loans[loanID]
	if !ok {
		return notFound("loan")
	}
	stored.Status = status
	r.m.state.loans[loanID] = stored
	return nil
}

func (r *memLoans) Delete(ctx context.Context, loanID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Loans.Delete"); err != nil {
		return err
	}
	if _, ok := r.m.state.loans[loanID]; !ok {
		return notFound("loan")
	}
	delete(r.m.state.loans, loanID)
	order := r.m.state.loanOrder[:0:0]
	for _, id := range r.m.state.loanOrder {
		if id != loanID {
			order = append(order, id)
		}
	}
	r.m.state.loanOrder = order
	return nil
}

func (r *memLoans) CreateInstallments(ctx context.Context, installments []*domain.Installment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Loans.CreateInstallments"); err != nil {
		return err
	}
	for _, inst := range installments {
		r.m.state.installments[inst.ID] = *inst
	}
	return nil
}

func (r *memLoans) GetInstallments(_ context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := []*domain.Installment{}
	for _, i := range r.m.state.installments {
		if i.LoanID == loanID {
			inst := i
			out = append(out, &inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *memLoans) GetInstallmentsForUpdate(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error) {
	return r.GetInstallments(ctx, loanID)
}

func (r *memLoans) GetInstallmentByID(_ context.Context, installmentID uuid.UUID) (*domain.Installment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	inst, ok := r.m.state.installments[installmentID]
	if !ok {
		return nil, notFound("installment")
	}
	return &inst, nil
}

func (r *memLoans) UpdateInstallment(ctx context.Context, installment *domain.Installment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Loans.UpdateInstallment"); err != nil {
		return err
	}
	stored, ok := r.m.state.installments[installment.ID]
	if !ok {
		return notFound("installment")
	}
	stored.DueDate = installment.DueDate
	stored.Amount = installment.Amount
	stored.Status = installment.Status
	stored.PaidAmount = installment.PaidAmount
	stored.PaidDate = installment.PaidDate
	r.m.state.installments[installment.ID] = stored
	return nil
}

func (r *memLoans) DeleteInstallments(_ context.Context, loanID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var deleted int64
	for id, inst := range r.m.state.installments {
		if inst.LoanID == loanID {
			delete(r.m.state.installments, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memLoans) Summary(context.Context) (*domain.Summary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	summary := &domain.Summary{
		Capital:          r.m.state.capital.Amount,
		TotalLent:        decimal.Zero,
		TotalCollected:   decimal.Zero,
		PendingPortfolio: decimal.Zero,
		Clients:          len(r.m.state.clients),
	}
	for _, loan := range r.m.state.loans {
		switch loan.Status {
		case domain.LoanStatusActive:
			summary.ActiveLoans++
		case domain.LoanStatusInArrears:
			summary.LoansInArrears++
		case domain.LoanStatusFinished:
			summary.FinishedLoans++
		}
		summary.TotalLent = summary.TotalLent.Add(loan.Amount)
		summary.PendingPortfolio = summary.PendingPortfolio.Add(loan.PendingTotal)
	}
	for _, p := range r.m.state.payments {
		summary.TotalCollected = summary.TotalCollected.Add(p.Amount)
	}
	return summary, nil
}

type memPayments struct{ m *memoryStore }

func (r *memPayments) Create(ctx context.Context, payment *domain.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.check(ctx, "Payments.Create"); err != nil {
		return err
	}
	r.m.state.payments[payment.ID] = *payment
	return nil
}

func (r *memPayments) GetByLoanID(_ context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := []*domain.Payment{}
	for _, p := range r.m.state.payments {
		if p.LoanID == loanID {
			payment := p
			out = append(out, &payment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.Before(out[j].PaymentDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memPayments) DeleteByLoan(_ context.Context, loanID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var deleted int64
	for id, p := range r.m.state.payments {
		if p.LoanID == loanID {
			delete(r.m.state.payments, id)
			deleted++
		}
	}
	return deleted, nil
}
