package main

import (
	"context"
	"fmt"
	"io"

	rediscache "github.com/sheikh-saqib/money-management-ledger/internal/cache/redis"
	"github.com/sheikh-saqib/money-management-ledger/internal/config"
	"github.com/sheikh-saqib/money-management-ledger/internal/dashboard"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/sheikh-saqib/money-management-ledger/internal/storage/postgres"
	"github.com/shopspring/decimal"
)

// store is the slice of the database the commands use.
type store interface {
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ActiveAccountBalances(ctx context.Context) ([]models.AccountBalance, error)
	TotalActiveBalance(ctx context.Context) (decimal.Decimal, error)
	AmountToPay(ctx context.Context) (decimal.Decimal, error)
	AmountToReceive(ctx context.Context) (decimal.Decimal, error)
	RecentTransactions(ctx context.Context, limit int) ([]models.RecentTransaction, error)
}

// env carries what every command needs; tests replace the functions.
type env struct {
	out     io.Writer
	migrate func() error
	open    func(ctx context.Context) (store, func(), error)
	// invalidate drops the dashboard cached for running servers.
	invalidate func(ctx context.Context) error
}

func newEnv(out io.Writer) *env {
	return &env{
		out: out,
		migrate: func() error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			return postgres.Migrate(cfg.Postgres, logger)
		},
		open: func(ctx context.Context) (store, func(), error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, nil, err
			}
			db, err := postgres.Open(ctx, cfg.Postgres)
			if err != nil {
				return nil, nil, fmt.Errorf("ledgerctl talks to postgres only: %w", err)
			}
			return postgres.NewPostgresLedgerStore(db), func() { db.Close() }, nil
		},
		invalidate: func(ctx context.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// An in-process server cache is out of reach; it expires after its TTL.
			if cfg.RedisAddr == "" {
				return nil
			}
			rc := rediscache.DefaultConfig()
			rc.Addr = cfg.RedisAddr
			c, err := rediscache.NewRedisCache(rc)
			if err != nil {
				return err
			}
			defer c.Close()
			return dashboard.NewService(nil, c, cfg.DashboardCacheTTL, nil).Invalidate(ctx)
		},
	}
}
