// AngelaMos | 2026
// service_test.go

package onboarding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
	"github.com/schooltino/api/internal/principal"
	"github.com/schooltino/api/internal/subscription"
	"github.com/schooltino/api/internal/tenant"
)

// memoryStores back a fake transaction: writes land in a staging copy and
// move to committed state only when the whole callback succeeds.
type memoryStores struct {
	tenants       map[string]tenant.Tenant
	classes       map[string][]string
	principals    map[string]principal.Principal
	subscriptions map[string]subscription.Subscription
}

func newMemoryStores() *memoryStores {
	return &memoryStores{
		tenants:       make(map[string]tenant.Tenant),
		classes:       make(map[string][]string),
		principals:    make(map[string]principal.Principal),
		subscriptions: make(map[string]subscription.Subscription),
	}
}

func (m *memoryStores) clone() *memoryStores {
	c := newMemoryStores()
	for k, v := range m.tenants {
		c.tenants[k] = v
	}
	for k, v := range m.classes {
		c.classes[k] = append([]string(nil), v...)
	}
	for k, v := range m.principals {
		c.principals[k] = v
	}
	for k, v := range m.subscriptions {
		c.subscriptions[k] = v
	}
	return c
}

type fakeTenantRepo struct {
	stores *memoryStores
	err    error
}

func (f *fakeTenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	if f.err != nil {
		return f.err
	}
	f.stores.tenants[t.ID] = *t
	return nil
}

func (f *fakeTenantRepo) SeedClasses(
	_ context.Context,
	tenantID string,
	names []string,
) error {
	if f.err != nil {
		return f.err
	}
	f.stores.classes[tenantID] = append([]string(nil), names...)
	return nil
}

type fakePrincipalRepo struct {
	stores *memoryStores
	err    error
}

func (f *fakePrincipalRepo) Create(
	_ context.Context,
	p *principal.Principal,
) error {
	if f.err != nil {
		return f.err
	}
	f.stores.principals[p.ID] = *p
	return nil
}

func (f *fakePrincipalRepo) Get(
	context.Context, principal.Class, string,
) (*principal.Principal, error) {
	return nil, core.ErrNotFound
}

func (f *fakePrincipalRepo) FindByIdentifier(
	context.Context, string,
) (*principal.Principal, error) {
	return nil, core.ErrNotFound
}

func (f *fakePrincipalRepo) SetPassword(
	context.Context, principal.Class, string, string,
) error {
	return nil
}

type fakeSubscriptionRepo struct {
	stores *memoryStores
	err    error
}

func (f *fakeSubscriptionRepo) Create(
	_ context.Context,
	sub *subscription.Subscription,
) error {
	if f.err != nil {
		return f.err
	}
	f.stores.subscriptions[sub.TenantID] = *sub
	return nil
}

func (f *fakeSubscriptionRepo) GetByTenant(
	context.Context, string,
) (*subscription.Subscription, error) {
	return nil, core.ErrNotFound
}

func (f *fakeSubscriptionRepo) Save(
	context.Context, *subscription.Subscription,
) error {
	return nil
}

func (f *fakeSubscriptionRepo) ListDue(
	context.Context, time.Time,
) ([]subscription.Subscription, error) {
	return nil, nil
}

type fakeIssuer struct {
	err    error
	issued int
}

func (f *fakeIssuer) Issue(
	principalID, class, tenantID string,
	_ time.Duration,
) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued++
	return "token:" + principalID + ":" + class + ":" + tenantID, nil
}

type nullRecorder struct{}

func (nullRecorder) Record(context.Context, audit.Entry) {}

type stepFailures struct {
	tenant       error
	principal    error
	subscription error
}

func testService(
	stores *memoryStores,
	issuer TokenIssuer,
	fail stepFailures,
) *Service {
	run := func(_ context.Context, fn func(r txRepos) error) error {
		staged := stores.clone()
		err := fn(txRepos{
			tenants:       &fakeTenantRepo{stores: staged, err: fail.tenant},
			principals:    &fakePrincipalRepo{stores: staged, err: fail.principal},
			subscriptions: &fakeSubscriptionRepo{stores: staged, err: fail.subscription},
		})
		if err != nil {
			return err
		}
		*stores = *staged
		return nil
	}

	return &Service{
		run:      run,
		tokens:   issuer,
		recorder: nullRecorder{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tokenTTL: 24 * time.Hour,
	}
}

func validRequest() OnboardRequest {
	return OnboardRequest{
		SchoolName:    "Sunrise Public School",
		Board:         "CBSE",
		Contact:       "+91-9000000001",
		AdminEmail:    "director@sunrise.example",
		AdminFullName: "A. Director",
		AdminPassword: "correct horse battery",
	}
}

func TestOnboardProvisionsTenantAdminAndTrial(t *testing.T) {
	stores := newMemoryStores()
	issuer := &fakeIssuer{}
	svc := testService(stores, issuer, stepFailures{})

	resp, err := svc.Onboard(context.Background(), validRequest(), "203.0.113.9")
	require.NoError(t, err)

	require.NotEmpty(t, resp.TenantID)
	require.NotEmpty(t, resp.AdminID)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, string(plan.PlanTrial), resp.Plan)
	require.Equal(t, 1, issuer.issued)

	created, ok := stores.tenants[resp.TenantID]
	require.True(t, ok)
	require.Equal(t, "Sunrise Public School", created.Name)
	require.True(t, created.Active)

	require.Equal(t, tenant.DefaultClassNames, stores.classes[resp.TenantID])

	admin, ok := stores.principals[resp.AdminID]
	require.True(t, ok)
	require.Equal(t, principal.ClassAdminStaff, admin.Class)
	require.Equal(t, principal.RoleDirector, admin.Role)
	require.Equal(t, resp.TenantID, admin.TenantID)
	require.True(t, admin.Active)
	require.NotEqual(t, "correct horse battery", admin.PasswordHash)

	sub, ok := stores.subscriptions[resp.TenantID]
	require.True(t, ok)
	require.Equal(t, plan.PlanTrial, sub.Plan)
	require.Equal(t, plan.StatusActive, sub.Status)
	require.True(t, sub.Trial)
	require.WithinDuration(t,
		time.Now().Add(subscription.TrialLength), sub.ExpiresAt, time.Minute)
}

func TestOnboardRollsBackWhenPrincipalStepFails(t *testing.T) {
	stores := newMemoryStores()
	svc := testService(stores, &fakeIssuer{}, stepFailures{
		principal: errors.New("insert failed"),
	})

	_, err := svc.Onboard(context.Background(), validRequest(), "203.0.113.9")
	require.Error(t, err)

	require.Empty(t, stores.tenants)
	require.Empty(t, stores.principals)
	require.Empty(t, stores.subscriptions)
}

func TestOnboardRollsBackWhenSubscriptionStepFails(t *testing.T) {
	stores := newMemoryStores()
	svc := testService(stores, &fakeIssuer{}, stepFailures{
		subscription: errors.New("insert failed"),
	})

	_, err := svc.Onboard(context.Background(), validRequest(), "203.0.113.9")
	require.Error(t, err)

	require.Empty(t, stores.tenants)
	require.Empty(t, stores.subscriptions)
}

func TestOnboardSurfacesDuplicateKey(t *testing.T) {
	stores := newMemoryStores()
	svc := testService(stores, &fakeIssuer{}, stepFailures{
		tenant: core.ErrDuplicateKey,
	})

	_, err := svc.Onboard(context.Background(), validRequest(), "203.0.113.9")
	require.ErrorIs(t, err, core.ErrDuplicateKey)
	require.Empty(t, stores.tenants)
}
