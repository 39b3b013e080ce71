package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitTTL keeps idle bucket state from accumulating in redis.
const rateLimitTTL = 10 * time.Minute

// Token bucket shared across instances. State lives in a redis hash so every
// replica enforces the same budget per session.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, retry_after_ms }
`)

// rateLimitCommits throttles booking commits per session. The limiter fails
// open: a redis error must not keep paying customers from booking.
func (app *Application) rateLimitCommits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.config.Limiter.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		sessionID := app.sessionManager.Token(r.Context())
		if sessionID == "" {
			sessionID = r.RemoteAddr
		}
		key := fmt.Sprintf("rate:commit:%s", sessionID)

		args := []interface{}{
			time.Now().UnixMilli(),
			app.config.Limiter.Capacity,
			app.config.Limiter.RefillTokens,
			app.config.Limiter.RefillInterval.Milliseconds(),
			int64(rateLimitTTL / time.Second),
		}

		vals, err := tokenBucketScript.Run(r.Context(), app.redis, []string{key}, args...).Int64Slice()
		if err != nil || len(vals) != 2 {
			app.contextGetLogger(r).Warn("rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if vals[0] != 1 {
			app.rateLimitExceededResponse(w, r, time.Duration(vals[1])*time.Millisecond)
			return
		}

		next.ServeHTTP(w, r)
	})
}
