package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proxydesk/internal/domain"
)

type RedisQuoteCache struct {
	client *redis.Client
}

func NewRedisQuoteCache(client *redis.Client) QuoteCache {
	return &RedisQuoteCache{client: client}
}

func quoteKey(currency domain.Currency) string {
	return fmt.Sprintf("livequote:USD-%s", currency)
}

func (c *RedisQuoteCache) Get(ctx context.Context, currency domain.Currency) (*domain.LiveQuote, error) {
	data, err := c.client.Get(ctx, quoteKey(currency)).Result()
	if err != nil {
		return nil, err
	}

	var quote domain.LiveQuote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, err
	}

	return &quote, nil
}

func (c *RedisQuoteCache) Set(ctx context.Context, quote *domain.LiveQuote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, quoteKey(quote.Currency), data, ttl).Err()
}
