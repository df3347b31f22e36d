package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// The window starts at the first failure and is not extended by later ones.
var incrWindowScript = goredis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// AttemptCounter keeps per-key failure counts in Redis so that limits hold
// across restarts of the vault agent.
type AttemptCounter struct {
	client goredis.UniversalClient
	prefix string
}

func NewAttemptCounter(client goredis.UniversalClient, prefix string) *AttemptCounter {
	if prefix == "" {
		prefix = "vault"
	}
	return &AttemptCounter{client: client, prefix: prefix}
}

func (c *AttemptCounter) key(k string) string { return c.prefix + ":" + k }

func (c *AttemptCounter) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = 1000
	}
	n, err := incrWindowScript.Run(ctx, c.client, []string{c.key(key)}, ms).Int()
	if err != nil {
		return 0, fmt.Errorf("attempts incr: %w", err)
	}
	return n, nil
}

func (c *AttemptCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("attempts reset: %w", err)
	}
	return nil
}
