package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyOrderStatus caches the latest order status for cheap polling reads.
	keyOrderStatus = "order_status:%s"
	// keySweepLock is the advisory lock held for the duration of one sweep
	// pass so concurrent instances do not duplicate work.
	keySweepLock = "lock:sweep:expired_orders"

	ttlOrderStatus = 5 * time.Minute
	ttlSweepLock   = 2 * time.Minute
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
}

// Cache is a thin wrapper over redis for the keys this service owns. All
// methods are best-effort; correctness never depends on redis.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) SetOrderStatus(ctx context.Context, orderID, status string) error {
	return c.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, orderID), status, ttlOrderStatus).Err()
}

func (c *Cache) GetOrderStatus(ctx context.Context, orderID string) (string, error) {
	return c.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Result()
}

// AcquireSweepLock takes the sweep lock for holder. Returns false when another
// instance holds it.
func (c *Cache) AcquireSweepLock(ctx context.Context, holder string) (bool, error) {
	return c.rdb.SetNX(ctx, keySweepLock, holder, ttlSweepLock).Result()
}

// ReleaseSweepLock drops the lock if holder still owns it.
func (c *Cache) ReleaseSweepLock(ctx context.Context, holder string) error {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`
	return c.rdb.Eval(ctx, script, []string{keySweepLock}, holder).Err()
}
