// AngelaMos | 2026
// gate.go

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
)

// QuotaSource charges metered consumption against the tenant's counter.
type QuotaSource interface {
	ConsumeQuota(
		ctx context.Context,
		snapshot *plan.Snapshot,
		resource plan.Resource,
		amount int,
	) error
}

// Gate enforces plan entitlements and quotas in front of business
// handlers. Quota is charged before the handler runs and is never
// refunded on handler failure.
type Gate struct {
	quotas QuotaSource
}

func NewGate(quotas QuotaSource) *Gate {
	return &Gate{quotas: quotas}
}

// Require refuses requests whose plan lacks the capability. An expired
// subscription answers 402 on anything beyond read-only so the client
// can distinguish "renew" from "upgrade".
func (g *Gate) Require(capability plan.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc := GetTenantContext(r.Context())
			if tc == nil {
				core.JSONError(w, core.UnauthorizedError("missing tenant context"))
				return
			}

			if tc.Snapshot.Status == plan.StatusExpired &&
				capability != plan.CapCoreRead {
				core.JSONError(w, core.PaymentRequiredError())
				return
			}

			if !tc.Entitlements.Has(capability) {
				core.JSONError(w, core.PlanInsufficientError(string(capability)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireQuota gates on the capability and then charges amount against
// the resource counter.
func (g *Gate) RequireQuota(
	capability plan.Capability,
	resource plan.Resource,
	amount int,
) func(http.Handler) http.Handler {
	requireCap := g.Require(capability)

	return func(next http.Handler) http.Handler {
		return requireCap(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				tc := GetTenantContext(r.Context())

				err := g.quotas.ConsumeQuota(
					r.Context(), tc.Snapshot, resource, amount)
				if errors.Is(err, core.ErrQuotaExceeded) {
					core.JSONError(w, core.QuotaExceededError(string(resource)))
					return
				}
				if err != nil {
					core.InternalServerError(w, err)
					return
				}

				next.ServeHTTP(w, r)
			},
		))
	}
}
