package memory

import (
	"context"
	"sync"

	"proxydesk/internal/domain"
	"proxydesk/pkg/errors"
)

type RatesRepository struct {
	mu    sync.RWMutex
	rates map[domain.Currency]*domain.ExchangeRate
}

func NewRatesRepository() *RatesRepository {
	return &RatesRepository{rates: make(map[domain.Currency]*domain.ExchangeRate)}
}

func (r *RatesRepository) Upsert(_ context.Context, rate *domain.ExchangeRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *rate
	r.rates[rate.Currency] = &copied
	return nil
}

func (r *RatesRepository) Get(_ context.Context, currency domain.Currency) (*domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rate, ok := r.rates[currency]
	if !ok {
		return nil, errors.ErrRateNotConfigured
	}
	copied := *rate
	return &copied, nil
}

func (r *RatesRepository) List(_ context.Context) ([]*domain.ExchangeRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ExchangeRate, 0, len(r.rates))
	for _, rate := range r.rates {
		copied := *rate
		out = append(out, &copied)
	}
	return out, nil
}
