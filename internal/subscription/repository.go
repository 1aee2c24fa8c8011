// AngelaMos | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schooltino/api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByTenant(ctx context.Context, tenantID string) (*Subscription, error)
	Save(ctx context.Context, sub *Subscription) error
	ListDue(ctx context.Context, now time.Time) ([]Subscription, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions
			(tenant_id, plan, status, trial, started_at, expires_at, grace_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &sub.UpdatedAt, query,
		sub.TenantID,
		sub.Plan,
		sub.Status,
		sub.Trial,
		sub.StartedAt,
		sub.ExpiresAt,
		sub.GraceUntil,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create subscription: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}

func (r *repository) GetByTenant(
	ctx context.Context,
	tenantID string,
) (*Subscription, error) {
	query := `
		SELECT tenant_id, plan, status, trial, started_at, expires_at,
		       grace_until, updated_at
		FROM subscriptions
		WHERE tenant_id = $1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &sub, nil
}

func (r *repository) Save(ctx context.Context, sub *Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan = $2, status = $3, trial = $4, started_at = $5,
		    expires_at = $6, grace_until = $7, updated_at = NOW()
		WHERE tenant_id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &sub.UpdatedAt, query,
		sub.TenantID,
		sub.Plan,
		sub.Status,
		sub.Trial,
		sub.StartedAt,
		sub.ExpiresAt,
		sub.GraceUntil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	return nil
}

// ListDue returns subscriptions whose state the clock has outrun: active
// past expiry or in grace past the grace boundary.
func (r *repository) ListDue(
	ctx context.Context,
	now time.Time,
) ([]Subscription, error) {
	query := `
		SELECT tenant_id, plan, status, trial, started_at, expires_at,
		       grace_until, updated_at
		FROM subscriptions
		WHERE (status = 'ACTIVE' AND expires_at < $1)
		   OR (status = 'GRACE' AND grace_until < $1)`

	var subs []Subscription
	if err := r.db.SelectContext(ctx, &subs, query, now); err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}

	return subs, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
