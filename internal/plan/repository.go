// AngelaMos | 2026
// repository.go

package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/schooltino/api/internal/core"
)

// SubscriptionRow is the registry's read-only view of a tenant's
// subscription. Lifecycle transitions live elsewhere.
type SubscriptionRow struct {
	TenantID  string    `db:"tenant_id"`
	Plan      Plan      `db:"plan"`
	Status    Status    `db:"status"`
	Trial     bool      `db:"trial"`
	ExpiresAt time.Time `db:"expires_at"`
}

type Repository interface {
	Subscription(ctx context.Context, tenantID string) (*SubscriptionRow, error)
	AddUsage(
		ctx context.Context,
		tenantID string,
		resource Resource,
		period string,
		amount, cap int,
	) (bool, error)
	Usage(
		ctx context.Context,
		tenantID string,
		resource Resource,
		period string,
	) (int, error)
	PruneBefore(ctx context.Context, period string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Subscription(
	ctx context.Context,
	tenantID string,
) (*SubscriptionRow, error) {
	query := `
		SELECT tenant_id, plan, status, trial, expires_at
		FROM subscriptions
		WHERE tenant_id = $1`

	var row SubscriptionRow
	err := r.db.GetContext(ctx, &row, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &row, nil
}

// AddUsage charges amount against the tenant's monthly counter. The
// conditional upsert keeps the cap atomic under concurrent consumers:
// the update only lands when the new total stays within cap, and a
// missing RETURNING row means the charge was refused.
func (r *repository) AddUsage(
	ctx context.Context,
	tenantID string,
	resource Resource,
	period string,
	amount, cap int,
) (bool, error) {
	if amount > cap {
		return false, nil
	}

	query := `
		INSERT INTO quota_counters (tenant_id, resource, period, used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, resource, period)
		DO UPDATE SET used = quota_counters.used + $4
		WHERE quota_counters.used + $4 <= $5
		RETURNING used`

	var used int
	err := r.db.GetContext(ctx, &used, query,
		tenantID, resource, period, amount, cap)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("add quota usage: %w", err)
	}

	return true, nil
}

func (r *repository) Usage(
	ctx context.Context,
	tenantID string,
	resource Resource,
	period string,
) (int, error) {
	query := `
		SELECT used FROM quota_counters
		WHERE tenant_id = $1 AND resource = $2 AND period = $3`

	var used int
	err := r.db.GetContext(ctx, &used, query, tenantID, resource, period)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quota usage: %w", err)
	}

	return used, nil
}

// PruneBefore drops counters from closed periods. Counters are keyed by
// calendar month, so the monthly reset is a deletion of stale keys and is
// idempotent.
func (r *repository) PruneBefore(
	ctx context.Context,
	period string,
) (int64, error) {
	query := `DELETE FROM quota_counters WHERE period < $1`

	result, err := r.db.ExecContext(ctx, query, period)
	if err != nil {
		return 0, fmt.Errorf("prune quota counters: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune quota counters: %w", err)
	}

	return rows, nil
}
