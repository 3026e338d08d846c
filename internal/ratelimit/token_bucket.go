package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The bucket state lives in one hash so the refill and take happen in a
// single round trip. Tokens are returned as a string to keep the fraction.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = (t[1] * 1000) + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])

if tokens == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - ts)
  tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), now}
`

var (
	ErrLimiterNotConfigured = errors.New("rate_limiter_not_configured")
	ErrEmptyLimiterKey      = errors.New("rate_limiter_key_empty")
	ErrInvalidLimit         = errors.New("rate_limiter_invalid_limit")
	errMalformedReply       = errors.New("rate_limiter_malformed_reply")
)

// TokenBucket is a continuously refilling limiter evaluated atomically in Redis.
type TokenBucket struct {
	client redis.UniversalClient
	script *redis.Script
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

func NewTokenBucket(client redis.UniversalClient) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

// Allow takes one token from key's bucket. rate is tokens per second.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	denied := &RateLimitResult{Limit: burst}
	switch {
	case t == nil || t.client == nil:
		return denied, ErrLimiterNotConfigured
	case key == "":
		return denied, ErrEmptyLimiterKey
	case rate <= 0 || burst <= 0:
		return denied, ErrInvalidLimit
	}

	reply, err := t.script.Run(ctx, t.client, []string{key},
		rate, burst, bucketTTL(rate, burst).Milliseconds(),
	).Slice()
	if err != nil {
		return denied, err
	}
	return parseReply(reply, rate, burst)
}

func parseReply(reply []interface{}, rate float64, burst int) (*RateLimitResult, error) {
	if len(reply) < 3 {
		return &RateLimitResult{Limit: burst}, errMalformedReply
	}
	allowed := toInt(reply[0]) == 1
	remaining := toFloat(reply[1])
	now := time.UnixMilli(toInt(reply[2]))

	res := &RateLimitResult{
		Allowed:   allowed,
		Limit:     burst,
		Remaining: int(remaining),
		ResetTime: now,
	}
	if !allowed {
		res.RetryAfter = retryAfter(remaining, rate)
		res.ResetTime = now.Add(res.RetryAfter)
	}
	return res, nil
}

// retryAfter is the time until one whole token is available again.
func retryAfter(remaining, rate float64) time.Duration {
	needed := 1 - remaining
	if needed <= 0 {
		needed = 1
	}
	return time.Duration(needed / rate * float64(time.Second))
}

// bucketTTL keeps idle buckets around for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Ceil(float64(burst) / rate * 2)
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

func toInt(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case int64:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
