package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/lending-fund/internal/domain"
)

const clientColumns = `id, full_name, document, phone, address, created_at`

type clientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, full_name, document, phone, address, created_at)
		VALUES (:id, :full_name, :document, :phone, :address, :created_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, client); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, clientID)
}

func (r *clientRepository) GetByIDForUpdate(ctx context.Context, clientID uuid.UUID) (*domain.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, clientID)
}

func (r *clientRepository) get(ctx context.Context, query string, clientID uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	if err := r.db.GetContext(ctx, &client, query, clientID); err != nil {
		return nil, fmt.Errorf("get client %s: %w", clientID, err)
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	clients := []*domain.Client{}
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY full_name, created_at`
	if err := r.db.SelectContext(ctx, &clients, query); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	query := `
		UPDATE clients
		SET full_name = :full_name, document = :document, phone = :phone, address = :address
		WHERE id = :id
	`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, client)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return expectAffected(result, "client")
}

func (r *clientRepository) Delete(ctx context.Context, clientID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return expectAffected(result, "client")
}
