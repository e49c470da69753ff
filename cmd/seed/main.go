// Seeding tool for a fresh deployment: installs the default pricing table
// and, optionally, a batch of sample proxy credentials for staging.
//
// Usage (env overrides):
//
//	SEED_SAMPLE_CREDENTIALS=true SEED_SAMPLE_TIER=10 SEED_SAMPLE_COUNT=25
//
// Reads DATABASE_URL and other core config via proxydesk/pkg/config.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/inventory"
	"proxydesk/internal/pricing"
	"proxydesk/internal/repository/postgres"
	"proxydesk/pkg/config"
	"proxydesk/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("seed")

	cfg := config.Load()
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required", nil)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	ctx := context.Background()

	pricingService := pricing.NewService(postgres.NewPricingRepository(db), log)
	seeded, err := pricingService.SeedDefaults(ctx, defaultTiers())
	if err != nil {
		log.Fatal("Failed to seed pricing tiers", map[string]interface{}{"error": err.Error()})
	}

	if os.Getenv("SEED_SAMPLE_CREDENTIALS") == "true" {
		tier := getIntEnv("SEED_SAMPLE_TIER", 10)
		count := getIntEnv("SEED_SAMPLE_COUNT", 25)

		inventoryService := inventory.NewService(postgres.NewInventoryRepository(db), log)
		entries := make([]inventory.BulkEntry, 0, count)
		for i := 0; i < count; i++ {
			entries = append(entries, inventory.BulkEntry{
				Username:     fmt.Sprintf("staging-%s", uuid.NewString()[:8]),
				Password:     uuid.NewString(),
				TierCapacity: tier,
			})
		}

		inserted, err := inventoryService.BulkInsert(ctx, entries)
		if err != nil {
			log.Fatal("Failed to seed sample credentials", map[string]interface{}{"error": err.Error()})
		}
		fmt.Printf("OK: %d sample credentials seeded (tier %d)\n", inserted, tier)
	}

	fmt.Printf("OK: %d pricing tiers seeded\n", seeded)
}

// defaultTiers is the table the admin console used to hard-code client side.
// Each tier covers exactly one supported quantity.
func defaultTiers() []*domain.PricingTier {
	prices := map[int]string{
		5:   "0.81",
		10:  "0.78",
		25:  "0.74",
		50:  "0.70",
		100: "0.65",
	}

	now := time.Now().UTC()
	tiers := make([]*domain.PricingTier, 0, len(prices))
	for quantity, price := range prices {
		tiers = append(tiers, &domain.PricingTier{
			ID:          uuid.New(),
			MinQuantity: quantity,
			MaxQuantity: quantity,
			PriceUSD:    decimal.RequireFromString(price),
			UpdatedAt:   now,
		})
	}
	return tiers
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
