package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/commerce-policy/internal/domain/promo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const missingMarker = "-"

// PromoCache is a read-through Redis cache in front of a promo.Store.
// Unknown codes are cached too so repeated typos stay off the backing store.
// Redis failures fall back to the backing store.
type PromoCache struct {
	client  *redis.Client
	backing promo.Store
	ttl     time.Duration
	prefix  string
	logger  *zap.Logger
}

func NewPromoCache(client *redis.Client, backing promo.Store, ttl time.Duration, logger *zap.Logger) *PromoCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		prefix:  "commerce-policy:promo",
		logger:  logger,
	}
}

// NewClient opens a Redis client and checks the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *PromoCache) key(code string) string {
	return fmt.Sprintf("%s:%s", c.prefix, code)
}

func (c *PromoCache) Lookup(ctx context.Context, code string) (*promo.Code, bool, error) {
	code = promo.Normalize(code)
	key := c.key(code)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == missingMarker {
			return nil, false, nil
		}
		var pc promo.Code
		if err := json.Unmarshal([]byte(raw), &pc); err == nil {
			return &pc, true, nil
		}
		c.logger.Warn("discarding unreadable cached promo code", zap.String("code", code))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("promo cache read failed", zap.String("code", code), zap.Error(err))
	}

	pc, found, err := c.backing.Lookup(ctx, code)
	if err != nil {
		return nil, false, err
	}

	value := missingMarker
	if found {
		data, err := json.Marshal(pc)
		if err != nil {
			return pc, found, nil
		}
		value = string(data)
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("promo cache write failed", zap.String("code", code), zap.Error(err))
	}
	return pc, found, nil
}

type catalogWriter interface {
	Put(ctx context.Context, c *promo.Code) error
}

// Put writes the code through to the backing catalog and drops any cached
// entry for it, including a cached miss.
func (c *PromoCache) Put(ctx context.Context, pc *promo.Code) error {
	w, ok := c.backing.(catalogWriter)
	if !ok {
		return errors.New("backing promo store is read-only")
	}
	if err := w.Put(ctx, pc); err != nil {
		return err
	}
	if err := c.Invalidate(ctx, pc.Code); err != nil {
		c.logger.Warn("promo cache invalidation failed", zap.String("code", pc.Code), zap.Error(err))
	}
	return nil
}

// Invalidate drops a cached entry, e.g. after the catalog row changed.
func (c *PromoCache) Invalidate(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(promo.Normalize(code))).Err()
}
