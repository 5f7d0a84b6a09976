package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript counts entries inside the window and adds the new request
// only when under the limit, atomically.
var allowScript = redis.NewScript(`
	redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	local count = redis.call("ZCARD", KEYS[1])
	if count >= tonumber(ARGV[2]) then
		return 0
	end
	redis.call("ZADD", KEYS[1], ARGV[3], ARGV[3])
	redis.call("PEXPIRE", KEYS[1], ARGV[4])
	return 1
`)

// RedisLimiter is a sliding window limiter shared across instances,
// backed by a Redis sorted set per user.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	keyPrefix   string
}

// NewRedisLimiter creates a Redis-backed limiter using the given client.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		keyPrefix:   "tyreterra:ratelimit",
	}
}

var _ Limiter = (*RedisLimiter)(nil)

// Allow reports whether the user is under the limit and, if so, records
// the request.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64) (bool, error) {
	key := l.keyPrefix + ":" + strconv.FormatInt(userID, 10)
	now := time.Now().UnixMicro()
	cutoff := now - l.window.Microseconds()

	res, err := allowScript.Run(ctx, l.client,
		[]string{key}, cutoff, l.maxRequests, now, l.window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
