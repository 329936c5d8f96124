// Package dashboard assembles the read-only balance and obligation overview.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sheikh-saqib/money-management-ledger/internal/cache"
	interfaces "github.com/sheikh-saqib/money-management-ledger/internal/interfaces"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// RecentLimit is how many entries the dashboard lists.
	RecentLimit = 20
	cacheKey    = "dashboard"
)

type Service struct {
	reader interfaces.DashboardReader
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

// NewService builds a dashboard over reader. A nil cache disables caching.
func NewService(reader interfaces.DashboardReader, c cache.Cache, ttl time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		reader: reader,
		cache:  c,
		ttl:    ttl,
		logger: logger.Named("dashboard"),
	}
}

// Get returns the cached dashboard or computes a fresh one. Cache errors are
// logged and never fail the request.
func (s *Service) Get(ctx context.Context) (models.Dashboard, error) {
	if s.cache != nil {
		var cached models.Dashboard
		err := cache.GetJSON(ctx, s.cache, cacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	d, err := s.compute(ctx)
	if err != nil {
		return models.Dashboard{}, err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cacheKey, d, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return d, nil
}

func (s *Service) compute(ctx context.Context) (models.Dashboard, error) {
	var d models.Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.Accounts, err = s.reader.ActiveAccountBalances(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalBalance, err = s.reader.TotalActiveBalance(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.AmountToPay, err = s.reader.AmountToPay(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.AmountToReceive, err = s.reader.AmountToReceive(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentTransactions, err = s.reader.RecentTransactions(ctx, RecentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return models.Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	if d.Accounts == nil {
		d.Accounts = []models.AccountBalance{}
	}
	if d.RecentTransactions == nil {
		d.RecentTransactions = []models.RecentTransaction{}
	}
	return d, nil
}

// Invalidate drops the cached dashboard.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cacheKey)
}

// Publish implements interfaces.EventPublisher so committed ledger changes
// evict the cached dashboard.
func (s *Service) Publish(ctx context.Context, topic string, event any) error {
	return s.Invalidate(ctx)
}

var _ interfaces.EventPublisher = (*Service)(nil)
