// Package rates implements the admin-configured exchange rate store and the
// separate best-effort live market quote path.
package rates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

// divisionScale bounds the precision of convertBack so round-tripping a
// corrected amount stays within display tolerance.
const divisionScale = 8

// Repository defines persistence operations for admin-configured rates.
type Repository interface {
	Upsert(ctx context.Context, rate *domain.ExchangeRate) error
	Get(ctx context.Context, currency domain.Currency) (*domain.ExchangeRate, error)
	List(ctx context.Context) ([]*domain.ExchangeRate, error)
}

// QuoteProvider supplies external market rates, USD base.
type QuoteProvider interface {
	Name() string
	QuoteUSD(ctx context.Context, currency domain.Currency) (*domain.LiveQuote, error)
}

// QuoteCache caches live quotes between provider fetches.
type QuoteCache interface {
	Get(ctx context.Context, currency domain.Currency) (*domain.LiveQuote, error)
	Set(ctx context.Context, quote *domain.LiveQuote, ttl time.Duration) error
}

// Service owns exchange rates: the admin-configured store is the only source
// conversions read from; live quotes are advisory and never written to it.
type Service struct {
	repo         Repository
	providers    []QuoteProvider
	cache        QuoteCache
	fetchTimeout time.Duration
	quoteTTL     time.Duration
	logger       logger.Logger
}

func NewService(repo Repository, providers []QuoteProvider, cache QuoteCache, fetchTimeout, quoteTTL time.Duration, log logger.Logger) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	if quoteTTL <= 0 {
		quoteTTL = 10 * time.Minute
	}
	return &Service{
		repo:         repo,
		providers:    providers,
		cache:        cache,
		fetchTimeout: fetchTimeout,
		quoteTTL:     quoteTTL,
		logger:       log,
	}
}

// GetRate returns the admin-configured rate for the currency.
// An unconfigured currency is ErrRateNotConfigured, never a zero value.
func (s *Service) GetRate(ctx context.Context, currency domain.Currency) (*domain.ExchangeRate, error) {
	return s.repo.Get(ctx, currency)
}

// ListRates returns every configured rate.
func (s *Service) ListRates(ctx context.Context) ([]*domain.ExchangeRate, error) {
	return s.repo.List(ctx)
}

// SetRate replaces the rate for a currency, recording who set it and when.
func (s *Service) SetRate(ctx context.Context, currency domain.Currency, rate decimal.Decimal, adminID uuid.UUID) error {
	if !rate.IsPositive() {
		return pkgerrors.ErrInvalidRate
	}

	record := &domain.ExchangeRate{
		Currency:  currency,
		Rate:      rate,
		SetBy:     adminID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return err
	}

	s.logger.Info("Exchange rate set", map[string]interface{}{
		"currency": currency,
		"rate":     rate.String(),
		"admin_id": adminID,
	})
	return nil
}

// Convert projects a canonical USD amount into the local currency.
func (s *Service) Convert(ctx context.Context, amountUSD decimal.Decimal, currency domain.Currency) (decimal.Decimal, error) {
	rate, err := s.repo.Get(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amountUSD.Mul(rate.Rate), nil
}

// ConvertBack derives the canonical USD amount from a local-currency figure.
func (s *Service) ConvertBack(ctx context.Context, amountLocal decimal.Decimal, currency domain.Currency) (decimal.Decimal, error) {
	rate, err := s.repo.Get(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return amountLocal.DivRound(rate.Rate, divisionScale), nil
}

// LiveQuote fetches a best-effort market rate. It is timeout-bounded, cached,
// and completely independent of the configured-rate path: a provider outage
// degrades to ErrLiveRateUnavailable and never disturbs stored data.
func (s *Service) LiveQuote(ctx context.Context, currency domain.Currency) (*domain.LiveQuote, error) {
	if s.cache != nil {
		if quote, err := s.cache.Get(ctx, currency); err == nil {
			return quote, nil
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	for _, provider := range s.providers {
		quote, err := provider.QuoteUSD(fetchCtx, currency)
		if err != nil {
			s.logger.Warn("Live rate provider failed", map[string]interface{}{
				"provider": provider.Name(),
				"currency": currency,
				"error":    err.Error(),
			})
			continue
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, quote, s.quoteTTL); err != nil {
				s.logger.Warn("Failed to cache live quote", map[string]interface{}{
					"currency": currency,
					"error":    err.Error(),
				})
			}
		}
		return quote, nil
	}

	return nil, pkgerrors.ErrLiveRateUnavailable
}
