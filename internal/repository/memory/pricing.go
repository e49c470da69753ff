// Package memory provides mutex-guarded in-memory repositories used by
// unit and concurrency tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/pkg/errors"
)

type PricingRepository struct {
	mu    sync.RWMutex
	tiers []*domain.PricingTier
}

func NewPricingRepository() *PricingRepository {
	return &PricingRepository{}
}

func (r *PricingRepository) FindTierForQuantity(_ context.Context, quantity int) (*domain.PricingTier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tier := range r.tiers {
		if tier.Contains(quantity) {
			copied := *tier
			return &copied, nil
		}
	}
	return nil, errors.ErrNoTierForQuantity
}

func (r *PricingRepository) UpdatePriceForQuantity(_ context.Context, quantity int, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tier := range r.tiers {
		if tier.Contains(quantity) {
			tier.PriceUSD = price
			tier.UpdatedAt = time.Now()
			return nil
		}
	}
	return errors.ErrNoTierForQuantity
}

func (r *PricingRepository) ListTiers(_ context.Context) ([]*domain.PricingTier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.PricingTier, 0, len(r.tiers))
	for _, tier := range r.tiers {
		copied := *tier
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinQuantity < out[j].MinQuantity })
	return out, nil
}

func (r *PricingRepository) InsertTier(_ context.Context, tier *domain.PricingTier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *tier
	r.tiers = append(r.tiers, &copied)
	return nil
}
