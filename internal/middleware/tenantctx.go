// AngelaMos | 2026
// tenantctx.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
	"github.com/schooltino/api/internal/principal"
	"github.com/schooltino/api/internal/token"
)

const TenantContextKey contextKey = "tenant_context"

// TenantContext is the resolved identity and commercial state for one
// request. It is built once by the resolver and read-only downstream.
type TenantContext struct {
	Principal    *principal.Principal
	TenantID     string
	Class        principal.Class
	Snapshot     *plan.Snapshot
	Entitlements plan.Set
}

func (tc *TenantContext) InGrace() bool {
	return tc.Snapshot.InGrace()
}

// TokenVerifier, PrincipalStore, and PlanSource are the resolver's view
// of its collaborators, narrowed for substitution in tests.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*token.Claims, error)
}

type PrincipalStore interface {
	Get(
		ctx context.Context,
		class principal.Class,
		id string,
	) (*principal.Principal, error)
}

type PlanSource interface {
	PlanFor(ctx context.Context, tenantID string) (*plan.Snapshot, error)
}

type Resolver struct {
	tokens      TokenVerifier
	principals  PrincipalStore
	plans       PlanSource
	aiAvailable bool
	logger      *slog.Logger
}

// NewResolver builds the tenant context middleware. aiAvailable reflects
// whether an LLM provider is configured at startup; when it is not, the
// AI entitlements are dropped from every request's effective set so
// gated routes degrade to PLAN_INSUFFICIENT instead of failing deep in
// a handler.
func NewResolver(
	tokens TokenVerifier,
	principals PrincipalStore,
	plans PlanSource,
	aiAvailable bool,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		tokens:      tokens,
		principals:  principals,
		plans:       plans,
		aiAvailable: aiAvailable,
		logger:      logger,
	}
}

func (res *Resolver) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := bearerToken(r)
		if !ok {
			core.JSONError(w, core.UnauthorizedError("missing bearer token"))
			return
		}

		claims, err := res.tokens.Verify(r.Context(), bearer)
		if err != nil {
			core.JSONError(w, tokenFailure(err))
			return
		}

		p, err := res.principals.Get(
			r.Context(), principal.Class(claims.Class), claims.PrincipalID)
		if errors.Is(err, core.ErrNotFound) ||
			errors.Is(err, core.ErrInvalidInput) {
			core.JSONError(w, core.UnauthorizedError("unknown principal"))
			return
		}
		if err != nil {
			res.logger.Error("principal store unavailable",
				"principal_id", claims.PrincipalID,
				"error", err,
			)
			core.InternalServerError(w, err)
			return
		}

		// The tenant claim is advisory; the stored row is authoritative
		// and the two must agree.
		if !p.Active || p.TenantID != claims.TenantID {
			core.JSONError(w, core.UnauthorizedError("principal not active"))
			return
		}

		snapshot, err := res.plans.PlanFor(r.Context(), p.TenantID)
		if errors.Is(err, core.ErrNotFound) {
			core.JSONError(w, core.UnauthorizedError("no subscription"))
			return
		}
		if err != nil {
			res.logger.Error("plan registry unavailable",
				"tenant_id", p.TenantID,
				"error", err,
			)
			core.InternalServerError(w, err)
			return
		}

		entitlements := snapshot.Entitlements
		if !res.aiAvailable {
			entitlements = entitlements.Without(plan.AICapabilities...)
		}

		tc := &TenantContext{
			Principal:    p,
			TenantID:     p.TenantID,
			Class:        p.Class,
			Snapshot:     snapshot,
			Entitlements: entitlements,
		}

		ctx := context.WithValue(r.Context(), TenantContextKey, tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetTenantContext(ctx context.Context) *TenantContext {
	tc, _ := ctx.Value(TenantContextKey).(*TenantContext)
	return tc
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	tokenString := strings.TrimSpace(header[len(prefix):])
	return tokenString, tokenString != ""
}

func tokenFailure(err error) *core.AppError {
	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	default:
		return core.TokenInvalidError()
	}
}
