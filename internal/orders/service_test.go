package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxydesk/internal/domain"
	"proxydesk/internal/inventory"
	"proxydesk/internal/orders"
	"proxydesk/internal/pricing"
	"proxydesk/internal/repository/memory"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

type fixture struct {
	orders    *orders.Service
	pricing   *pricing.Service
	inventory *inventory.Service
	repo      *memory.OrdersRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()

	pricingService := pricing.NewService(memory.NewPricingRepository(), log)
	inventoryService := inventory.NewService(memory.NewInventoryRepository(), log)
	repo := memory.NewOrdersRepository()

	return &fixture{
		orders:    orders.NewService(repo, pricingService, inventoryService, log),
		pricing:   pricingService,
		inventory: inventoryService,
		repo:      repo,
	}
}

func (f *fixture) seedTier(t *testing.T, quantity int, price string) {
	t.Helper()
	_, err := f.pricing.SeedDefaults(context.Background(), []*domain.PricingTier{{
		ID:          uuid.New(),
		MinQuantity: quantity,
		MaxQuantity: quantity,
		PriceUSD:    decimal.RequireFromString(price),
		UpdatedAt:   time.Now().UTC(),
	}})
	require.NoError(t, err)
}

func (f *fixture) seedPool(t *testing.T, tier, count int) {
	t.Helper()
	entries := make([]inventory.BulkEntry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, inventory.BulkEntry{
			Username:     uuid.NewString(),
			Password:     uuid.NewString(),
			TierCapacity: tier,
		})
	}
	_, err := f.inventory.BulkInsert(context.Background(), entries)
	require.NoError(t, err)
}

func TestPlace(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 5, "0.81")
	f.seedPool(t, 5, 2)

	userID := uuid.New()
	order, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   userID,
		Quantity: 5,
		Country:  "NG",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusActive, order.Status)
	assert.True(t, order.UnitPriceUSD.Equal(decimal.RequireFromString("0.81")))
	assert.True(t, order.TotalPriceUSD.Equal(decimal.RequireFromString("4.05")))
	require.Len(t, order.CredentialIDs, 1)

	cred, err := f.inventory.Get(context.Background(), order.CredentialIDs[0])
	require.NoError(t, err)
	assert.True(t, cred.IsAssigned)
	require.NotNil(t, cred.AssignedTo)
	assert.Equal(t, userID, *cred.AssignedTo)
}

func TestPlace_NoRetroactiveRepricing(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 5, "0.81")
	f.seedPool(t, 5, 2)

	order, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   uuid.New(),
		Quantity: 5,
	})
	require.NoError(t, err)

	require.NoError(t, f.pricing.UpdateTierPrice(context.Background(), 5, decimal.RequireFromString("0.95")))

	// The stored order still reports the price in effect when it was placed
	got, err := f.orders.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, got.UnitPriceUSD.Equal(decimal.RequireFromString("0.81")))
	assert.True(t, got.TotalPriceUSD.Equal(decimal.RequireFromString("4.05")))

	// A new order picks up the new price
	later, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   uuid.New(),
		Quantity: 5,
	})
	require.NoError(t, err)
	assert.True(t, later.TotalPriceUSD.Equal(decimal.RequireFromString("4.75")))
}

func TestPlace_NoTierAbortsBeforeAllocation(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, 5, 1)

	_, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   uuid.New(),
		Quantity: 5,
	})
	assert.ErrorIs(t, err, pkgerrors.ErrNoTierForQuantity)

	// The pool is untouched
	stats, err := f.inventory.StatsByTier(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].TotalAvailable)
}

func TestPlace_InsufficientInventoryRecordsNothing(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 10, "0.78")

	_, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   uuid.New(),
		Quantity: 10,
	})
	assert.ErrorIs(t, err, pkgerrors.ErrInsufficientInventory)

	list, err := f.orders.List(context.Background(), orders.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReleaseOrder(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 5, "0.81")
	f.seedPool(t, 5, 1)

	order, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   uuid.New(),
		Quantity: 5,
	})
	require.NoError(t, err)

	released, err := f.orders.ReleaseOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReleased, released.Status)

	cred, err := f.inventory.Get(context.Background(), order.CredentialIDs[0])
	require.NoError(t, err)
	assert.False(t, cred.IsAssigned)
	assert.Nil(t, cred.AssignedTo)
}

func TestReleaseOrder_ToleratesAlreadyReleasedCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 5, "0.81")
	f.seedPool(t, 5, 1)

	order, err := f.orders.Place(context.Background(), &orders.PlaceRequest{
		UserID:   uuid.New(),
		Quantity: 5,
	})
	require.NoError(t, err)

	// Credential released individually first
	require.NoError(t, f.inventory.Release(context.Background(), order.CredentialIDs[0]))

	released, err := f.orders.ReleaseOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReleased, released.Status)
}

func TestReleaseOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.ReleaseOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, pkgerrors.ErrOrderNotFound)
}

func TestList_FilterByUserAndStatus(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 5, "0.81")
	f.seedPool(t, 5, 3)

	alice := uuid.New()
	first, err := f.orders.Place(context.Background(), &orders.PlaceRequest{UserID: alice, Quantity: 5})
	require.NoError(t, err)
	_, err = f.orders.Place(context.Background(), &orders.PlaceRequest{UserID: alice, Quantity: 5})
	require.NoError(t, err)
	_, err = f.orders.Place(context.Background(), &orders.PlaceRequest{UserID: uuid.New(), Quantity: 5})
	require.NoError(t, err)

	_, err = f.orders.ReleaseOrder(context.Background(), first.ID)
	require.NoError(t, err)

	status := domain.OrderStatusActive
	list, err := f.orders.List(context.Background(), orders.Filter{UserID: &alice, Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alice, list[0].UserID)
}

func TestTotals(t *testing.T) {
	f := newFixture(t)
	f.seedTier(t, 5, "0.81")
	f.seedPool(t, 5, 2)

	_, err := f.orders.Place(context.Background(), &orders.PlaceRequest{UserID: uuid.New(), Quantity: 5})
	require.NoError(t, err)
	_, err = f.orders.Place(context.Background(), &orders.PlaceRequest{UserID: uuid.New(), Quantity: 5})
	require.NoError(t, err)

	totals, err := f.orders.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, totals.TotalOrders)
	assert.True(t, totals.TotalRevenueUSD.Equal(decimal.RequireFromString("8.10")))
}
