package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one counter per key and window in Redis. The first hit of a
// window sets its expiry.
type Redis struct {
	rdb    redis.Cmdable
	policy Policy
	prefix string
}

func NewRedis(rdb redis.Cmdable, p Policy) *Redis {
	return &Redis{rdb: rdb, policy: p, prefix: "ratelimit:" + p.Name + ":"}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := r.prefix + key
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, err
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, r.policy.Window).Err(); err != nil {
			return Decision{}, err
		}
	}
	ttl, err := r.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, err
	}
	if ttl < 0 {
		// The key lost its expiry, e.g. a crash between INCR and EXPIRE.
		if err := r.rdb.Expire(ctx, k, r.policy.Window).Err(); err != nil {
			return Decision{}, err
		}
		ttl = r.policy.Window
	}
	return decide(r.policy, int(n), ttl), nil
}
