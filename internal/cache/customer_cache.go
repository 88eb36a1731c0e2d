// internal/cache/customer_cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"airtel-ipn-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const customerNamespace = "ipn:customer"

// ErrMiss is returned when the key is not cached.
var ErrMiss = errors.New("cache miss")

// CustomerCache is a TTL-bounded read-through cache in front of the customer
// table. It is an optimization only: validation falls back to the store on
// any cache error, so correctness never depends on redis.
type CustomerCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewCustomerCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CustomerCache {
	return &CustomerCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(billRef string, refType domain.RefType) string {
	return customerNamespace + ":" + string(refType) + ":" + billRef
}

func (c *CustomerCache) Get(ctx context.Context, billRef string, refType domain.RefType) (*domain.Customer, error) {
	if c == nil || c.client == nil {
		return nil, ErrMiss
	}

	raw, err := c.client.Get(ctx, cacheKey(billRef, refType)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("customer cache read failed",
				zap.String("bill_ref", billRef),
				zap.Error(err))
		}
		return nil, ErrMiss
	}

	var customer domain.Customer
	if err := json.Unmarshal([]byte(raw), &customer); err != nil {
		c.logger.Warn("customer cache entry corrupt, evicting",
			zap.String("bill_ref", billRef),
			zap.Error(err))
		_ = c.client.Del(ctx, cacheKey(billRef, refType)).Err()
		return nil, ErrMiss
	}

	return &customer, nil
}

func (c *CustomerCache) Set(ctx context.Context, customer *domain.Customer) {
	if c == nil || c.client == nil || customer == nil {
		return
	}

	raw, err := json.Marshal(customer)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, cacheKey(customer.BillRefNumber, customer.RefType), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("customer cache write failed",
			zap.String("bill_ref", customer.BillRefNumber),
			zap.Error(err))
	}
}
