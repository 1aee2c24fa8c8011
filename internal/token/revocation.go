// AngelaMos | 2026
// revocation.go

package token

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revocationKeyPrefix = "revoked:"
	revocationTTL       = 25 * time.Hour
	revocationCacheTTL  = 60 * time.Second
)

type cachedCutoff struct {
	cutoff    time.Time
	fetchedAt time.Time
}

// RedisRevocations keeps a per-principal revocation cutoff in Redis with a
// short in-process cache in front of it. The cache bounds the window in
// which a freshly revoked token is still honored to revocationCacheTTL.
type RedisRevocations struct {
	client *redis.Client
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedCutoff
}

func NewRedisRevocations(client *redis.Client, logger *slog.Logger) *RedisRevocations {
	return &RedisRevocations{
		client: client,
		logger: logger,
		cache:  make(map[string]cachedCutoff),
	}
}

// RevokedAt returns the revocation cutoff for the principal, or the zero
// time if none is recorded. A Redis outage returns the error so the caller
// can decide to proceed without the check.
func (r *RedisRevocations) RevokedAt(
	ctx context.Context,
	principalID string,
) (time.Time, error) {
	r.mu.RLock()
	entry, ok := r.cache[principalID]
	r.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < revocationCacheTTL {
		return entry.cutoff, nil
	}

	raw, err := r.client.Get(ctx, revocationKeyPrefix+principalID).Result()
	if err == redis.Nil {
		r.store(principalID, time.Time{})
		return time.Time{}, nil
	}
	if err != nil {
		r.logger.Warn("revocation lookup failed, proceeding without check",
			"principal_id", principalID,
			"error", err,
		)
		return time.Time{}, fmt.Errorf("revocation lookup: %w", err)
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse revocation cutoff: %w", err)
	}

	cutoff := time.Unix(unix, 0)
	r.store(principalID, cutoff)
	return cutoff, nil
}

// Revoke records a cutoff for the principal. The key outlives the longest
// token lifetime so no live token can escape it.
func (r *RedisRevocations) Revoke(
	ctx context.Context,
	principalID string,
	at time.Time,
) error {
	err := r.client.Set(
		ctx,
		revocationKeyPrefix+principalID,
		strconv.FormatInt(at.Unix(), 10),
		revocationTTL,
	).Err()
	if err != nil {
		return fmt.Errorf("record revocation: %w", err)
	}

	r.store(principalID, at)
	return nil
}

func (r *RedisRevocations) store(principalID string, cutoff time.Time) {
	r.mu.Lock()
	r.cache[principalID] = cachedCutoff{cutoff: cutoff, fetchedAt: time.Now()}
	r.mu.Unlock()
}
