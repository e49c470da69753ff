package stats_test

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
	"proxydesk/internal/ledger"
	"proxydesk/internal/orders"
	"proxydesk/internal/pricing"
	"proxydesk/internal/rates"
	"proxydesk/internal/repository/memory"
	"proxydesk/internal/stats"
	"proxydesk/pkg/logger"
)

func TestSnapshot(t *testing.T) {
	log := logger.NewNop()
	ctx := context.Background()

	pricingService := pricing.NewService(memory.NewPricingRepository(), log)
	inventoryService := inventory.NewService(memory.NewInventoryRepository(), log)
	ratesService := rates.NewService(memory.NewRatesRepository(), nil, nil, time.Second, time.Minute, log)
	ledgerService := ledger.NewService(memory.NewLedgerRepository(), ratesService, log)
	ordersService := orders.NewService(memory.NewOrdersRepository(), pricingService, inventoryService, log)

	_, err := pricingService.SeedDefaults(ctx, []*domain.PricingTier{{
		ID:          uuid.New(),
		MinQuantity: 5,
		MaxQuantity: 5,
		PriceUSD:    decimal.RequireFromString("0.81"),
		UpdatedAt:   time.Now().UTC(),
	}})
	require.NoError(t, err)

	_, err = inventoryService.BulkInsert(ctx, []inventory.BulkEntry{
		{Username: "a", Password: "a", TierCapacity: 5},
		{Username: "b", Password: "b", TierCapacity: 5},
	})
	require.NoError(t, err)

	_, err = ordersService.Place(ctx, &orders.PlaceRequest{UserID: uuid.New(), Quantity: 5})
	require.NoError(t, err)

	tx, err := ledgerService.Record(ctx, &ledger.RecordRequest{
		UserID:    uuid.New(),
		AmountUSD: decimal.NewFromInt(30),
		Channel:   domain.ChannelNigeria,
		Reference: "ref-1",
	})
	require.NoError(t, err)
	require.NoError(t, ledgerService.Approve(ctx, tx.ID))

	svc := stats.NewService(inventoryService, ordersService, ledgerService)
	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snapshot.Tiers, 1)
	assert.Equal(t, 2, snapshot.Tiers[0].AllTimeTotal)
	assert.Equal(t, 1, snapshot.Tiers[0].TotalAssigned)
	assert.Equal(t, 1, snapshot.Tiers[0].TotalAvailable)

	assert.Equal(t, 1, snapshot.Orders.TotalOrders)
	assert.True(t, snapshot.Orders.TotalRevenueUSD.Equal(decimal.RequireFromString("4.05")))

	assert.Equal(t, 1, snapshot.Ledger.CountByStatus[domain.TransactionStatusApproved])
	assert.True(t, snapshot.Ledger.ApprovedVolumeUSD.Equal(decimal.NewFromInt(30)))
	assert.False(t, snapshot.GeneratedAt.IsZero())
}
