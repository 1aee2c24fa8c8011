// AngelaMos | 2026
// service_test.go

package subscription

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
)

type fakeRepo struct {
	subs map[string]*Subscription
}

func newFakeRepo(subs ...*Subscription) *fakeRepo {
	f := &fakeRepo{subs: make(map[string]*Subscription)}
	for _, sub := range subs {
		copied := *sub
		f.subs[sub.TenantID] = &copied
	}
	return f
}

func (f *fakeRepo) Create(_ context.Context, sub *Subscription) error {
	if _, exists := f.subs[sub.TenantID]; exists {
		return core.ErrDuplicateKey
	}
	copied := *sub
	f.subs[sub.TenantID] = &copied
	return nil
}

func (f *fakeRepo) GetByTenant(
	_ context.Context,
	tenantID string,
) (*Subscription, error) {
	sub, ok := f.subs[tenantID]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (f *fakeRepo) Save(_ context.Context, sub *Subscription) error {
	if _, ok := f.subs[sub.TenantID]; !ok {
		return core.ErrNotFound
	}
	copied := *sub
	f.subs[sub.TenantID] = &copied
	return nil
}

func (f *fakeRepo) ListDue(
	_ context.Context,
	now time.Time,
) ([]Subscription, error) {
	var due []Subscription
	for _, sub := range f.subs {
		switch {
		case sub.Status == plan.StatusActive && now.After(sub.ExpiresAt):
			due = append(due, *sub)
		case sub.Status == plan.StatusGrace &&
			sub.GraceUntil.Valid && now.After(sub.GraceUntil.Time):
			due = append(due, *sub)
		}
	}
	return due, nil
}

type fakePayments struct {
	err     error
	charged []int
}

func (f *fakePayments) Charge(
	_ context.Context,
	_ string,
	amount int,
) error {
	if f.err != nil {
		return f.err
	}
	f.charged = append(f.charged, amount)
	return nil
}

type nullRecorder struct{}

func (nullRecorder) Record(context.Context, audit.Entry) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(
	repo Repository,
	payments PaymentVerifier,
) *Service {
	return NewService(repo, payments, nil, nullRecorder{}, testLogger())
}

func TestAdvanceTrialExpiresWithoutGrace(t *testing.T) {
	now := time.Now()
	sub := StartTrial("tenant-1", now.Add(-31*24*time.Hour))

	require.True(t, sub.Advance(now))
	require.Equal(t, plan.StatusExpired, sub.Status)
	require.False(t, sub.GraceUntil.Valid)

	require.False(t, sub.Advance(now))
}

func TestAdvancePaidEntersGraceThenExpires(t *testing.T) {
	now := time.Now()
	sub := StartTrial("tenant-1", now.Add(-100*24*time.Hour))
	sub.Renew(plan.PlanBasic, now.Add(-31*24*time.Hour), Term)

	require.True(t, sub.Advance(now))
	require.Equal(t, plan.StatusGrace, sub.Status)
	require.True(t, sub.GraceUntil.Valid)

	// Idempotent inside the grace window.
	require.False(t, sub.Advance(now))
	require.Equal(t, plan.StatusGrace, sub.Status)

	later := sub.GraceUntil.Time.Add(time.Hour)
	require.True(t, sub.Advance(later))
	require.Equal(t, plan.StatusExpired, sub.Status)
}

func TestAdvanceBeforeExpiryIsNoop(t *testing.T) {
	now := time.Now()
	sub := StartTrial("tenant-1", now)

	require.False(t, sub.Advance(now.Add(24*time.Hour)))
	require.Equal(t, plan.StatusActive, sub.Status)
}

func TestSubscribeChargesAndActivates(t *testing.T) {
	now := time.Now()
	repo := newFakeRepo(StartTrial("tenant-1", now))
	payments := &fakePayments{}
	svc := testService(repo, payments)

	sub, err := svc.Subscribe(
		context.Background(),
		"tenant-1", "admin-1", "198.51.100.7",
		plan.PlanAIPowered,
	)
	require.NoError(t, err)
	require.Equal(t, plan.PlanAIPowered, sub.Plan)
	require.Equal(t, plan.StatusActive, sub.Status)
	require.False(t, sub.Trial)

	def, _ := plan.Lookup(plan.PlanAIPowered)
	require.Equal(t, []int{def.MonthlyPrice}, payments.charged)

	stored, err := repo.GetByTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Equal(t, plan.PlanAIPowered, stored.Plan)
}

func TestSubscribeRecoversExpiredSubscription(t *testing.T) {
	now := time.Now()
	expired := StartTrial("tenant-1", now.Add(-60*24*time.Hour))
	expired.Status = plan.StatusExpired
	repo := newFakeRepo(expired)
	svc := testService(repo, &fakePayments{})

	sub, err := svc.Subscribe(
		context.Background(),
		"tenant-1", "admin-1", "198.51.100.7",
		plan.PlanBasic,
	)
	require.NoError(t, err)
	require.Equal(t, plan.StatusActive, sub.Status)
}

func TestSubscribeRejectsTrialPlan(t *testing.T) {
	repo := newFakeRepo(StartTrial("tenant-1", time.Now()))
	svc := testService(repo, &fakePayments{})

	_, err := svc.Subscribe(
		context.Background(),
		"tenant-1", "admin-1", "198.51.100.7",
		plan.PlanTrial,
	)
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSubscribeFailedChargeLeavesStateUntouched(t *testing.T) {
	repo := newFakeRepo(StartTrial("tenant-1", time.Now()))
	svc := testService(repo, &fakePayments{err: core.ErrProviderDown})

	_, err := svc.Subscribe(
		context.Background(),
		"tenant-1", "admin-1", "198.51.100.7",
		plan.PlanBasic,
	)
	require.ErrorIs(t, err, core.ErrProviderDown)

	stored, err := repo.GetByTenant(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Equal(t, plan.PlanTrial, stored.Plan)
	require.True(t, stored.Trial)
}

func TestCancelCollapsesToCancelled(t *testing.T) {
	repo := newFakeRepo(StartTrial("tenant-1", time.Now()))
	svc := testService(repo, &fakePayments{})

	sub, err := svc.Cancel(
		context.Background(), "tenant-1", "admin-1", "198.51.100.7")
	require.NoError(t, err)
	require.Equal(t, plan.StatusCancelled, sub.Status)
}

func TestAdvanceAllPersistsTransitions(t *testing.T) {
	now := time.Now()

	overdueTrial := StartTrial("tenant-1", now.Add(-31*24*time.Hour))
	overduePaid := StartTrial("tenant-2", now.Add(-100*24*time.Hour))
	overduePaid.Renew(plan.PlanBasic, now.Add(-31*24*time.Hour), Term)
	current := StartTrial("tenant-3", now)

	repo := newFakeRepo(overdueTrial, overduePaid, current)
	svc := testService(repo, &fakePayments{})

	require.NoError(t, svc.AdvanceAll(context.Background(), now))

	ctx := context.Background()

	s1, _ := repo.GetByTenant(ctx, "tenant-1")
	require.Equal(t, plan.StatusExpired, s1.Status)

	s2, _ := repo.GetByTenant(ctx, "tenant-2")
	require.Equal(t, plan.StatusGrace, s2.Status)

	s3, _ := repo.GetByTenant(ctx, "tenant-3")
	require.Equal(t, plan.StatusActive, s3.Status)

	// Re-running with the same clock changes nothing further.
	require.NoError(t, svc.AdvanceAll(context.Background(), now))
	s2again, _ := repo.GetByTenant(ctx, "tenant-2")
	require.Equal(t, plan.StatusGrace, s2again.Status)
}
