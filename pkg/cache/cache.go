package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client redis.UniversalClient
}

// NewCache builds a cluster client when more than one address is given.
func NewCache(addrs []string, password string, useCluster bool) *Cache {
	var rdb redis.UniversalClient
	if useCluster && len(addrs) > 1 {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{Addrs: addrs, Password: password})
	} else {
		rdb = redis.NewClient(&redis.Options{Addr: addrs[0], Password: password})
	}
	return &Cache{client: rdb}
}

// FromClient wraps an existing client.
func FromClient(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, namespace+":"+key, value, ttl).Err()
}

func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	return c.client.Get(ctx, namespace+":"+key).Result()
}

func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	return c.client.Del(ctx, namespace+":"+key).Err()
}

func (c *Cache) GetTTL(ctx context.Context, namespace, key string) (time.Duration, error) {
	return c.client.TTL(ctx, namespace+":"+key).Result()
}

// SetJSON stores value marshalled as JSON.
func (c *Cache) SetJSON(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, namespace, key, b, ttl)
}

// GetJSON returns redis.Nil on a miss.
func (c *Cache) GetJSON(ctx context.Context, namespace, key string, dest interface{}) error {
	s, err := c.Get(ctx, namespace, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(s), dest)
}

// IncrWithExpire increments a counter and starts its window on first use.
func (c *Cache) IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error) {
	countKey := namespace + ":" + key
	cnt, err := c.client.Incr(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}
	if cnt == 1 {
		_ = c.client.Expire(ctx, countKey, window).Err()
	}
	return cnt, nil
}

// IsMiss reports whether err is a lookup of an absent key rather than a
// failure of the store.
func IsMiss(err error) bool { return errors.Is(err, redis.Nil) }
