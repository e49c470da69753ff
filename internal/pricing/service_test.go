package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxydesk/internal/domain"
	"proxydesk/internal/pricing"
	"proxydesk/internal/repository/memory"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

func newPricingService(t *testing.T, tiers ...*domain.PricingTier) (*pricing.Service, *memory.PricingRepository) {
	t.Helper()
	repo := memory.NewPricingRepository()
	for _, tier := range tiers {
		require.NoError(t, repo.InsertTier(context.Background(), tier))
	}
	return pricing.NewService(repo, logger.NewNop()), repo
}

func tier(min, max int, price string) *domain.PricingTier {
	return &domain.PricingTier{
		ID:          uuid.New(),
		MinQuantity: min,
		MaxQuantity: max,
		PriceUSD:    decimal.RequireFromString(price),
		UpdatedAt:   time.Now().UTC(),
	}
}

func TestResolvePrice_CoversWholeRange(t *testing.T) {
	svc, _ := newPricingService(t, tier(5, 8, "0.81"), tier(10, 10, "0.78"))

	for q := 5; q <= 8; q++ {
		price, err := svc.ResolvePrice(context.Background(), q)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("0.81")), "quantity %d", q)
	}

	price, err := svc.ResolvePrice(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.78")))
}

func TestResolvePrice_NoMatchingTier(t *testing.T) {
	svc, _ := newPricingService(t, tier(5, 5, "0.81"))

	_, err := svc.ResolvePrice(context.Background(), 6)
	assert.ErrorIs(t, err, pkgerrors.ErrNoTierForQuantity)

	_, err = svc.ResolvePrice(context.Background(), 0)
	assert.ErrorIs(t, err, pkgerrors.ErrNoTierForQuantity)
}

func TestUpdateTierPrice(t *testing.T) {
	svc, _ := newPricingService(t, tier(5, 5, "0.81"))

	err := svc.UpdateTierPrice(context.Background(), 5, decimal.RequireFromString("0.95"))
	require.NoError(t, err)

	price, err := svc.ResolvePrice(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.95")))
}

func TestUpdateTierPrice_RejectsNonPositive(t *testing.T) {
	svc, _ := newPricingService(t, tier(5, 5, "0.81"))

	err := svc.UpdateTierPrice(context.Background(), 5, decimal.Zero)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPrice)

	err = svc.UpdateTierPrice(context.Background(), 5, decimal.RequireFromString("-1"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPrice)

	// Price unchanged after the rejected updates
	price, err := svc.ResolvePrice(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.81")))
}

func TestUpdateTierPrice_UnknownQuantity(t *testing.T) {
	svc, _ := newPricingService(t, tier(5, 5, "0.81"))

	err := svc.UpdateTierPrice(context.Background(), 7, decimal.RequireFromString("0.95"))
	assert.ErrorIs(t, err, pkgerrors.ErrNoTierForQuantity)
}

func TestSeedDefaults_SkipsWhenTiersExist(t *testing.T) {
	svc, _ := newPricingService(t, tier(5, 5, "0.81"))

	inserted, err := svc.SeedDefaults(context.Background(), []*domain.PricingTier{tier(10, 10, "0.78")})
	require.NoError(t, err)
	assert.Zero(t, inserted)

	tiers, err := svc.ListTiers(context.Background())
	require.NoError(t, err)
	assert.Len(t, tiers, 1)
}

func TestSeedDefaults_InstallsOnEmptyTable(t *testing.T) {
	svc, _ := newPricingService(t)

	inserted, err := svc.SeedDefaults(context.Background(), []*domain.PricingTier{
		tier(5, 5, "0.81"),
		tier(10, 10, "0.78"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	price, err := svc.ResolvePrice(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.78")))
}
