package redis

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Options = goredis.UniversalOptions

// RedisAdapter is the key/value surface the service needs. Every key is
// stored under the adapter's prefix.
type RedisAdapter interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// DelIfEqual deletes key only while it still holds value.
	DelIfEqual(ctx context.Context, key string, value []byte) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

type redisAdapter struct {
	prefix   string
	conn     goredis.UniversalClient
	connName string
}

var (
	instancesMu sync.Mutex
	instances   = make(map[string]*redisAdapter)
)

// compare-and-delete, so a lock holder whose TTL expired cannot release
// somebody else's lock
var delIfEqualScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisAdapter connects once per connName and returns the cached adapter
// on later calls. The connection is checked with a ping before it is cached.
func NewRedisAdapter(connName string, keysPrefix string, opts *Options) (RedisAdapter, error) {
	instancesMu.Lock()
	defer instancesMu.Unlock()

	if adapter, ok := instances[connName]; ok {
		return adapter, nil
	}

	c := goredis.NewUniversalClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}

	adapter := &redisAdapter{
		conn:     c,
		prefix:   keysPrefix,
		connName: connName,
	}
	instances[connName] = adapter
	return adapter, nil
}

func (r *redisAdapter) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.conn.SetNX(ctx, r.prefix+key, value, ttl).Result()
}

func (r *redisAdapter) DelIfEqual(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := delIfEqualScript.Run(ctx, r.conn, []string{r.prefix + key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisAdapter) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx).Err()
}

// Close closes the connection and forgets the named instance.
func (r *redisAdapter) Close() error {
	instancesMu.Lock()
	if instances[r.connName] == r {
		delete(instances, r.connName)
	}
	instancesMu.Unlock()
	return r.conn.Close()
}
