// Command repair runs the schedule repair once over every loan and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/segyhp/lending-fund/internal/config"
	"github.com/segyhp/lending-fund/internal/logger"
	"github.com/segyhp/lending-fund/internal/migration"
	"github.com/segyhp/lending-fund/internal/repository"
	"github.com/segyhp/lending-fund/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("Schedule repair failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := migration.New(db.DB, log)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			return err
		}
	}

	ledger := service.NewLedgerService(repository.NewStore(db), log,
		service.WithInterestRate(cfg.GetInterestPerInstallment()),
		service.WithLocation(cfg.GetLocation()),
	)

	result, err := ledger.RepairSchedules(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("checked %d loans, fixed %d\n", result.LoansChecked, result.LoansFixed)
	return nil
}
