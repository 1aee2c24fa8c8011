// AngelaMos | 2026
// registry.go

package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schooltino/api/internal/core"
)

// Snapshot is the registry's answer for one tenant: current plan, the
// subscription status folded into an effective entitlement set, and the
// plan's quota bundle. Snapshots are immutable once built.
type Snapshot struct {
	TenantID     string
	Plan         Plan
	Status       Status
	Trial        bool
	ExpiresAt    time.Time
	Entitlements Set
	Quotas       Quotas
}

func (s *Snapshot) InGrace() bool {
	return s.Status == StatusGrace
}

type Registry struct {
	repo   Repository
	logger *slog.Logger
}

func NewRegistry(repo Repository, logger *slog.Logger) *Registry {
	return &Registry{repo: repo, logger: logger}
}

// PlanFor resolves the tenant's current plan snapshot. A tenant with no
// subscription row resolves to not found; the resolver turns that into a
// 401 since such a tenant cannot have issued tokens.
func (r *Registry) PlanFor(
	ctx context.Context,
	tenantID string,
) (*Snapshot, error) {
	row, err := r.repo.Subscription(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("plan for tenant: %w", err)
	}

	def, ok := definitions[row.Plan]
	if !ok {
		return nil, fmt.Errorf("plan for tenant: unknown plan %q", row.Plan)
	}

	return &Snapshot{
		TenantID:     tenantID,
		Plan:         row.Plan,
		Status:       row.Status,
		Trial:        row.Trial,
		ExpiresAt:    row.ExpiresAt,
		Entitlements: Entitlements(row.Plan, row.Status),
		Quotas:       def.Quotas,
	}, nil
}

// ConsumeQuota charges amount against the tenant's counter for the
// resource. The charge is consumption-intent: it is not rolled back
// when the guarded operation later fails.
func (r *Registry) ConsumeQuota(
	ctx context.Context,
	snapshot *Snapshot,
	resource Resource,
	amount int,
) error {
	if amount <= 0 {
		return nil
	}

	cap := snapshot.Quotas.Cap(resource)
	period := periodFor(resource, time.Now())

	ok, err := r.repo.AddUsage(
		ctx, snapshot.TenantID, resource, period, amount, cap)
	if err != nil {
		return fmt.Errorf("consume quota: %w", err)
	}
	if !ok {
		return fmt.Errorf("consume quota: %w", core.ErrQuotaExceeded)
	}

	return nil
}

// Usage reports the tenant's consumption of a resource in the current
// period, for the billing status surface.
func (r *Registry) Usage(
	ctx context.Context,
	tenantID string,
	resource Resource,
) (int, error) {
	return r.repo.Usage(ctx, tenantID, resource, periodFor(resource, time.Now()))
}

// ResetMonthlyCounters removes counters from past periods. Counters are
// keyed by calendar month so a counter for the current month always
// starts from zero; the prune only reclaims storage and is idempotent.
func (r *Registry) ResetMonthlyCounters(ctx context.Context) error {
	pruned, err := r.repo.PruneBefore(ctx, CurrentPeriod(time.Now()))
	if err != nil {
		return fmt.Errorf("reset monthly counters: %w", err)
	}

	if pruned > 0 {
		r.logger.Info("pruned stale quota counters", "count", pruned)
	}
	return nil
}

// CurrentPeriod keys quota counters by UTC calendar month.
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// lifetimePeriod keys counters that never reset. It sorts after every
// month key, so the prune that clears past months cannot match it.
const lifetimePeriod = "total"

// periodFor picks the counter bucket: AI queries are a monthly
// consumable, the student count is a cap on the roster itself.
func periodFor(resource Resource, now time.Time) string {
	if resource == ResourceStudent {
		return lifetimePeriod
	}
	return CurrentPeriod(now)
}
