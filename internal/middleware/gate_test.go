// AngelaMos | 2026
// gate_test.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
	"github.com/schooltino/api/internal/principal"
)

type fakeQuotas struct {
	err     error
	charged int
}

func (f *fakeQuotas) ConsumeQuota(
	_ context.Context,
	_ *plan.Snapshot,
	_ plan.Resource,
	amount int,
) error {
	if f.err != nil {
		return f.err
	}
	f.charged += amount
	return nil
}

func gateRequest(
	t *testing.T,
	mw func(http.Handler) http.Handler,
	tc *TenantContext,
) *httptest.ResponseRecorder {
	t.Helper()

	handler := mw(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))

	req := httptest.NewRequest(http.MethodPost, "/students", nil)
	if tc != nil {
		ctx := context.WithValue(req.Context(), TenantContextKey, tc)
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func contextOn(p plan.Plan, status plan.Status) *TenantContext {
	snapshot := &plan.Snapshot{
		TenantID:     "tenant-1",
		Plan:         p,
		Status:       status,
		Entitlements: plan.Entitlements(p, status),
	}
	return &TenantContext{
		Principal:    &principal.Principal{ID: "p1", TenantID: "tenant-1"},
		TenantID:     "tenant-1",
		Class:        principal.ClassAdminStaff,
		Snapshot:     snapshot,
		Entitlements: snapshot.Entitlements,
	}
}

func TestRequireMissingContext(t *testing.T) {
	gate := NewGate(&fakeQuotas{})

	rec := gateRequest(t, gate.Require(plan.CapStudentManage), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAllowsEntitledPlan(t *testing.T) {
	gate := NewGate(&fakeQuotas{})
	tc := contextOn(plan.PlanBasic, plan.StatusActive)

	rec := gateRequest(t, gate.Require(plan.CapStudentManage), tc)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireDeniesMissingCapability(t *testing.T) {
	gate := NewGate(&fakeQuotas{})
	tc := contextOn(plan.PlanBasic, plan.StatusActive)

	rec := gateRequest(t, gate.Require(plan.CapAIPaper), tc)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "PLAN_INSUFFICIENT", body["detail"])
	require.Equal(t, "AI_PAPER", body["required"])
}

func TestRequireGraceKeepsEntitlements(t *testing.T) {
	gate := NewGate(&fakeQuotas{})
	tc := contextOn(plan.PlanAIPowered, plan.StatusGrace)

	rec := gateRequest(t, gate.Require(plan.CapAIContent), tc)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireExpiredAnswersPaymentRequired(t *testing.T) {
	gate := NewGate(&fakeQuotas{})
	tc := contextOn(plan.PlanAIPowered, plan.StatusExpired)

	rec := gateRequest(t, gate.Require(plan.CapStudentManage), tc)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "PAYMENT_REQUIRED", body["detail"])

	rec = gateRequest(t, gate.Require(plan.CapCoreRead), tc)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireQuotaCharges(t *testing.T) {
	quotas := &fakeQuotas{}
	gate := NewGate(quotas)
	tc := contextOn(plan.PlanAIPowered, plan.StatusActive)

	rec := gateRequest(
		t,
		gate.RequireQuota(plan.CapAIContent, plan.ResourceAIQuery, 1),
		tc,
	)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, quotas.charged)
}

func TestRequireQuotaExceeded(t *testing.T) {
	gate := NewGate(&fakeQuotas{err: core.ErrQuotaExceeded})
	tc := contextOn(plan.PlanAIPowered, plan.StatusActive)

	rec := gateRequest(
		t,
		gate.RequireQuota(plan.CapAIContent, plan.ResourceAIQuery, 1),
		tc,
	)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "QUOTA_EXCEEDED", body["detail"])
	require.Equal(t, "AI_QUERY", body["resource"])
}

func TestRequireQuotaChecksCapabilityFirst(t *testing.T) {
	quotas := &fakeQuotas{}
	gate := NewGate(quotas)
	tc := contextOn(plan.PlanBasic, plan.StatusActive)

	rec := gateRequest(
		t,
		gate.RequireQuota(plan.CapAIContent, plan.ResourceAIQuery, 1),
		tc,
	)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, quotas.charged)
}
