// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/schooltino/api/internal/core"
)

// Category buckets routes by cost. Each category carries its own
// per-client-address window.
type Category string

const (
	CategoryLogin         Category = "LOGIN"
	CategoryPasswordReset Category = "PASSWORD_RESET"
	CategoryAIQuery       Category = "AI_QUERY"
	CategoryDefault       Category = "DEFAULT"
)

// Burst equals the rate so the Nth+1 request inside the window is the
// first one denied.
var categoryLimits = map[Category]redis_rate.Limit{
	CategoryLogin:         {Rate: 5, Burst: 5, Period: time.Minute},
	CategoryPasswordReset: {Rate: 3, Burst: 3, Period: time.Minute},
	CategoryAIQuery:       {Rate: 60, Burst: 60, Period: time.Minute},
	CategoryDefault:       {Rate: 200, Burst: 200, Period: time.Minute},
}

// CategoryLimiter enforces per-client-address sliding windows in Redis.
// When Redis is unreachable it falls back to an in-process limiter and
// logs a warning; the store outage is never surfaced to the client.
type CategoryLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	enabled  bool
}

func NewCategoryLimiter(rdb *redis.Client, enabled bool) *CategoryLimiter {
	return &CategoryLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		enabled:  enabled,
	}
}

// Limit wraps a route subtree with the category's window.
func (cl *CategoryLimiter) Limit(category Category) func(http.Handler) http.Handler {
	limit, ok := categoryLimits[category]
	if !ok {
		limit = categoryLimits[CategoryDefault]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("ratelimit:%s:ip:%s", category, clientAddr(r))

			res, err := cl.limiter.Allow(r.Context(), key, limit)
			if err != nil {
				slog.Warn("rate limit store unreachable, using local fallback",
					"category", category,
					"error", err,
				)
				res, err = cl.fallback.allow(key, limit)
				if err != nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			setRateLimitHeaders(w, res, limit)

			if res.Allowed == 0 {
				writeRateLimited(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Check is the non-middleware form for callers that meter inside a
// handler body.
func (cl *CategoryLimiter) Check(
	ctx context.Context,
	addr string,
	category Category,
) (allowed bool, retryAfter time.Duration) {
	if !cl.enabled {
		return true, 0
	}

	limit, ok := categoryLimits[category]
	if !ok {
		limit = categoryLimits[CategoryDefault]
	}

	key := fmt.Sprintf("ratelimit:%s:ip:%s", category, addr)

	res, err := cl.limiter.Allow(ctx, key, limit)
	if err != nil {
		res, err = cl.fallback.allow(key, limit)
		if err != nil {
			return true, 0
		}
	}

	if res.Allowed == 0 {
		return false, res.RetryAfter
	}
	return true, 0
}

// clientAddr extracts the client address, trusting proxy headers in the
// order the edge sets them.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ClientAddr is exported for handlers that stamp audit entries.
func ClientAddr(r *http.Request) string {
	return clientAddr(r)
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
}

func writeRateLimited(w http.ResponseWriter, res *redis_rate.Result) {
	core.JSONError(w, core.RateLimitedError(int(res.RetryAfter.Seconds())))
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess int64
}

type localLimiter struct {
	limiters sync.Map
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

func newLocalLimiter() *localLimiter {
	l := &localLimiter{}
	go l.cleanup()
	return l
}

func (l *localLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-entryTTL).Unix()
		l.limiters.Range(func(key, value any) bool {
			entry, ok := value.(*limiterEntry)
			if ok && entry.lastAccess < cutoff {
				l.limiters.Delete(key)
			}
			return true
		})
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now().Unix()

	entryI, loaded := l.limiters.Load(key)
	if !loaded {
		newEntry := &limiterEntry{
			limiter: rate.NewLimiter(
				rate.Limit(ratePerSec),
				limit.Burst,
			),
			lastAccess: now,
		}
		entryI, _ = l.limiters.LoadOrStore(key, newEntry)
	}

	entry, ok := entryI.(*limiterEntry)
	if !ok {
		return nil, fmt.Errorf("invalid limiter entry type")
	}
	entry.lastAccess = now

	allowed := entry.limiter.Allow()

	remaining := int(entry.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = time.Duration(float64(time.Second) / ratePerSec)
	} else {
		retryAfter = -1
	}

	allowedInt := 0
	if allowed {
		allowedInt = 1
	}

	return &redis_rate.Result{
		Limit:      limit,
		Allowed:    allowedInt,
		Remaining:  remaining,
		RetryAfter: retryAfter,
		ResetAfter: time.Duration(float64(time.Second) / ratePerSec),
	}, nil
}
