// Package pricing implements the quantity-tier price table.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

// Repository defines persistence operations for pricing tiers.
type Repository interface {
	FindTierForQuantity(ctx context.Context, quantity int) (*domain.PricingTier, error)
	UpdatePriceForQuantity(ctx context.Context, quantity int, price decimal.Decimal) error
	ListTiers(ctx context.Context) ([]*domain.PricingTier, error)
	InsertTier(ctx context.Context, tier *domain.PricingTier) error
}

// Service resolves quantities to USD prices and applies admin price updates.
type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// ResolvePrice returns the per-unit USD price for the tier covering quantity.
// There is no default fallback: an uncovered quantity is a domain error the
// caller must surface, not silently substitute.
func (s *Service) ResolvePrice(ctx context.Context, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, pkgerrors.ErrNoTierForQuantity
	}

	tier, err := s.repo.FindTierForQuantity(ctx, quantity)
	if err != nil {
		return decimal.Zero, err
	}
	return tier.PriceUSD, nil
}

// UpdateTierPrice replaces the price of the tier covering quantity. The
// update is a single atomic statement; orders priced earlier are untouched.
func (s *Service) UpdateTierPrice(ctx context.Context, quantity int, newPrice decimal.Decimal) error {
	if !newPrice.IsPositive() {
		return pkgerrors.ErrInvalidPrice
	}

	if err := s.repo.UpdatePriceForQuantity(ctx, quantity, newPrice); err != nil {
		return err
	}

	s.logger.Info("Tier price updated", map[string]interface{}{
		"quantity": quantity,
		"price":    newPrice.String(),
	})
	return nil
}

// ListTiers returns the full table ordered by minimum quantity.
func (s *Service) ListTiers(ctx context.Context) ([]*domain.PricingTier, error) {
	return s.repo.ListTiers(ctx)
}

// SeedDefaults installs the default tier table if no tiers exist yet. The
// admin console used to hard-code these as a client-side fallback; here they
// are explicit seed data applied once.
func (s *Service) SeedDefaults(ctx context.Context, defaults []*domain.PricingTier) (int, error) {
	existing, err := s.repo.ListTiers(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	inserted := 0
	for _, tier := range defaults {
		if err := s.repo.InsertTier(ctx, tier); err != nil {
			return inserted, pkgerrors.Wrap(err, "failed to seed pricing tier")
		}
		inserted++
	}

	s.logger.Info("Default pricing tiers seeded", map[string]interface{}{
		"count": inserted,
	})
	return inserted, nil
}
