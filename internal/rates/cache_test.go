package rates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxydesk/internal/domain"
)

func newTestCache(t *testing.T) (QuoteCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisQuoteCache(client), mr
}

func TestRedisQuoteCache_SetGet(t *testing.T) {
	cache, _ := newTestCache(t)

	quote := &domain.LiveQuote{
		Currency:  domain.NGN,
		Rate:      decimal.RequireFromString("1510.75"),
		Source:    "OpenERAPI",
		FetchedAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, cache.Set(context.Background(), quote, time.Minute))

	got, err := cache.Get(context.Background(), domain.NGN)
	require.NoError(t, err)
	assert.Equal(t, quote.Currency, got.Currency)
	assert.True(t, got.Rate.Equal(quote.Rate))
	assert.Equal(t, quote.Source, got.Source)
}

func TestRedisQuoteCache_MissAndExpiry(t *testing.T) {
	cache, mr := newTestCache(t)

	_, err := cache.Get(context.Background(), domain.GHS)
	assert.Error(t, err)

	quote := &domain.LiveQuote{
		Currency: domain.GHS,
		Rate:     decimal.RequireFromString("12.4"),
		Source:   "OpenERAPI",
	}
	require.NoError(t, cache.Set(context.Background(), quote, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err = cache.Get(context.Background(), domain.GHS)
	assert.Error(t, err)
}
