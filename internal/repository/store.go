package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type sqlStore struct {
	db *sqlx.DB
}

// NewStore wraps a database handle in a Store.
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db}
}

// NewRepositories binds every repository to db, which may be a transaction.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Capital:   NewCapitalRepository(db),
		Movements: NewMovementRepository(db),
		Clients:   NewClientRepository(db),
		Loans:     NewLoanRepository(db),
		Payments:  NewPaymentRepository(db),
	}
}

func (s *sqlStore) Repositories() Repositories {
	return NewRepositories(s.db)
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(context.Context, Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
