package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/domain"
	"github.com/segyhp/lending-fund/internal/repository"
	customError "github.com/segyhp/lending-fund/pkg/errors"
)

func normalizeClient(request *domain.ClientRequest) (*domain.ClientRequest, error) {
	if request == nil {
		return nil, customError.WrapValidation("request body is required")
	}

	normalized := &domain.ClientRequest{
		FullName: strings.TrimSpace(request.FullName),
		Document: strings.TrimSpace(request.Document),
		Phone:    strings.TrimSpace(request.Phone),
	}
	if request.Address != nil {
		if address := strings.TrimSpace(*request.Address); address != "" {
			normalized.Address = &address
		}
	}

	switch {
	case normalized.FullName == "":
		return nil, customError.WrapValidation("full_name is required")
	case normalized.Document == "":
		return nil, customError.WrapValidation("document is required")
	case normalized.Phone == "":
		return nil, customError.WrapValidation("phone is required")
	}
	return normalized, nil
}

// CreateClient registers a new borrower
func (s *LedgerService) CreateClient(ctx context.Context, request *domain.ClientRequest) (*domain.Client, error) {
	normalized, err := normalizeClient(request)
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		ID:        uuid.New(),
		FullName:  normalized.FullName,
		Document:  normalized.Document,
		Phone:     normalized.Phone,
		Address:   normalized.Address,
		CreatedAt: s.now(),
	}

	if err := s.store.Repositories().Clients.Create(ctx, client); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.Info("Client created", zap.String("client_id", client.ID.String()))
	return client, nil
}

func (s *LedgerService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	clients, err := s.store.Repositories().Clients.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return clients, nil
}

// GetClient returns a client together with its loans
func (s *LedgerService) GetClient(ctx context.Context, clientID uuid.UUID) (*domain.ClientDetail, error) {
	repos := s.store.Repositories()

	client, err := repos.Clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, notFoundOr(err, customError.WrapClientNotFound(clientID.String()))
	}

	loans, err := repos.Loans.List(ctx, domain.LoanFilter{ClientID: &clientID})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.ClientDetail{Client: client, Loans: loans}, nil
}

func (s *LedgerService) UpdateClient(ctx context.Context, clientID uuid.UUID, request *domain.ClientRequest) (*domain.Client, error) {
	normalized, err := normalizeClient(request)
	if err != nil {
		return nil, err
	}

	var client *domain.Client
	err = s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Clients.GetByIDForUpdate(ctx, clientID)
		if err != nil {
			return notFoundOr(err, customError.WrapClientNotFound(clientID.String()))
		}

		current.FullName = normalized.FullName
		current.Document = normalized.Document
		current.Phone = normalized.Phone
		current.Address = normalized.Address
		if err := repos.Clients.Update(ctx, current); err != nil {
			return err
		}

		client = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Client updated", zap.String("client_id", clientID.String()))
	return client, nil
}
