// Package middleware holds gateway HTTP middlewares.
package middleware

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateConfig defines a token bucket: sustained requests per second and
// burst capacity.
type RateConfig struct {
	Rate  float64
	Burst float64
}

// RateLimiter throttles callers with a Redis-backed token bucket, keyed by
// client identity and request scope (lookups vs estimates).
type RateLimiter struct {
	client    *redis.Client
	lookupCfg RateConfig
	quoteCfg  RateConfig
	script    *redis.Script
}

// NewRateLimiter constructs a limiter. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, lookup, quote RateConfig) *RateLimiter {
	if client == nil {
		return nil
	}
	return &RateLimiter{
		client:    client,
		lookupCfg: lookup,
		quoteCfg:  quote,
		script:    redis.NewScript(tokenBucketLua),
	}
}

// Middleware enforces the configured limits. Estimate requests (anything
// non-GET) draw from the quote bucket, which is typically stricter since
// each one fans out to every provider.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil || (l.lookupCfg.Rate <= 0 && l.quoteCfg.Rate <= 0) {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, scope := l.quoteCfg, "quote"
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			cfg, scope = l.lookupCfg, "lookup"
		}
		if cfg.Rate <= 0 || cfg.Burst <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter, err := l.allow(r.Context(), scope, callerIdentity(r), cfg)
		if err != nil {
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			if retryAfter > 0 {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
			}
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(ctx context.Context, scope, identity string, cfg RateConfig) (bool, time.Duration, error) {
	key := strings.Join([]string{"rl", scope, identity}, ":")
	result, err := l.script.Run(ctx, l.client, []string{key}, time.Now().UnixMilli(), cfg.Rate, cfg.Burst, 1).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, errors.New("invalid rate limit script response")
	}
	allowed, err := toInt64(values[0])
	if err != nil {
		return false, 0, err
	}
	waitMillis, err := toFloat64(values[1])
	if err != nil {
		return false, 0, err
	}
	if allowed != 1 {
		return false, time.Duration(waitMillis) * time.Millisecond, nil
	}
	return true, 0, nil
}

func callerIdentity(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		return id
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "anonymous"
	}
	return r.RemoteAddr
}

func toFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case int64:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		return strconv.ParseFloat(val, 64)
	default:
		return 0, errors.New("unsupported type")
	}
}

func toInt64(v interface{}) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		return int64(val), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	default:
		return 0, errors.New("unsupported type")
	}
}

const tokenBucketLua = `
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'timestamp')
local tokens = tonumber(state[1])
local last = tonumber(state[2])

if tokens == nil then
  tokens = capacity
end
if last == nil then
  last = now_ms
end

local delta = now_ms - last
if delta < 0 then
  delta = 0
end
if delta > 0 then
  tokens = math.min(capacity, tokens + delta * rate / 1000)
  last = now_ms
end

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) / rate * 1000)
end

redis.call('HMSET', key, 'tokens', tokens, 'timestamp', last)
redis.call('PEXPIRE', key, math.ceil((capacity / rate) * 1000))

if allowed then
  return {1, 0}
else
  return {0, wait_ms}
end
`
