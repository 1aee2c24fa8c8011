// AngelaMos | 2026
// registry_test.go

package plan

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schooltino/api/internal/core"
)

type memoryRepo struct {
	mu           sync.Mutex
	subscription *SubscriptionRow
	counters     map[string]int
}

func newMemoryRepo(sub *SubscriptionRow) *memoryRepo {
	return &memoryRepo{subscription: sub, counters: make(map[string]int)}
}

func (m *memoryRepo) Subscription(
	_ context.Context,
	tenantID string,
) (*SubscriptionRow, error) {
	if m.subscription == nil || m.subscription.TenantID != tenantID {
		return nil, core.ErrNotFound
	}
	return m.subscription, nil
}

func (m *memoryRepo) AddUsage(
	_ context.Context,
	tenantID string,
	resource Resource,
	period string,
	amount, cap int,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tenantID + "/" + string(resource) + "/" + period
	if m.counters[key]+amount > cap {
		return false, nil
	}
	m.counters[key] += amount
	return true, nil
}

func (m *memoryRepo) Usage(
	_ context.Context,
	tenantID string,
	resource Resource,
	period string,
) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[tenantID+"/"+string(resource)+"/"+period], nil
}

func (m *memoryRepo) PruneBefore(
	_ context.Context,
	period string,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned int64
	for key := range m.counters {
		parts := strings.SplitN(key, "/", 3)
		if parts[2] < period {
			delete(m.counters, key)
			pruned++
		}
	}
	return pruned, nil
}

func testRegistry(sub *SubscriptionRow) (*Registry, *memoryRepo) {
	repo := newMemoryRepo(sub)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRegistry(repo, logger), repo
}

func TestEntitlementsLadder(t *testing.T) {
	basic := Entitlements(PlanBasic, StatusActive)
	require.True(t, basic.Has(CapCoreRead))
	require.True(t, basic.Has(CapStudentManage))
	require.False(t, basic.Has(CapAIContent))
	require.False(t, basic.Has(CapBiometric))
	require.False(t, basic.Has(CapCCTV))
	require.False(t, basic.Has(CapTransportGPS))

	aiPowered := Entitlements(PlanAIPowered, StatusActive)
	require.True(t, aiPowered.Has(CapAIContent))
	require.True(t, aiPowered.Has(CapAIPaper))
	require.False(t, aiPowered.Has(CapCCTV))

	cctv := Entitlements(PlanCCTVBiometric, StatusActive)
	require.True(t, cctv.Has(CapBiometric))
	require.True(t, cctv.Has(CapCCTV))
	require.True(t, cctv.Has(CapAIContent))
	require.False(t, cctv.Has(CapTransportGPS))

	gps := Entitlements(PlanGPSTracking, StatusActive)
	require.True(t, gps.Has(CapTransportGPS))
	require.True(t, gps.Has(CapCCTV))

	top := Entitlements(PlanAITeacher, StatusActive)
	for _, c := range allSet {
		require.True(t, top.Has(c), "AI_TEACHER missing %s", c)
	}

	trial := Entitlements(PlanTrial, StatusActive)
	require.Len(t, trial, len(allSet))
}

func TestEntitlementsStatusFolding(t *testing.T) {
	grace := Entitlements(PlanAIPowered, StatusGrace)
	require.Equal(t, Entitlements(PlanAIPowered, StatusActive), grace)

	for _, status := range []Status{StatusExpired, StatusCancelled} {
		set := Entitlements(PlanAITeacher, status)
		require.Len(t, set, 1)
		require.True(t, set.Has(CapCoreRead))
	}
}

func TestPlanForBuildsSnapshot(t *testing.T) {
	expires := time.Now().Add(30 * 24 * time.Hour)
	registry, _ := testRegistry(&SubscriptionRow{
		TenantID:  "tenant-1",
		Plan:      PlanAIPowered,
		Status:    StatusGrace,
		ExpiresAt: expires,
	})

	snap, err := registry.PlanFor(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.Equal(t, PlanAIPowered, snap.Plan)
	require.True(t, snap.InGrace())
	require.True(t, snap.Entitlements.Has(CapAIContent))
	require.Equal(t, 1000, snap.Quotas.AIQueryCap)
}

func TestPlanForUnknownTenant(t *testing.T) {
	registry, _ := testRegistry(nil)

	_, err := registry.PlanFor(context.Background(), "nope")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestConsumeQuotaEnforcesCap(t *testing.T) {
	registry, _ := testRegistry(&SubscriptionRow{
		TenantID: "tenant-1",
		Plan:     PlanTrial,
		Status:   StatusActive,
	})

	snap, err := registry.PlanFor(context.Background(), "tenant-1")
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < snap.Quotas.AIQueryCap; i++ {
		require.NoError(
			t,
			registry.ConsumeQuota(ctx, snap, ResourceAIQuery, 1),
		)
	}

	err = registry.ConsumeQuota(ctx, snap, ResourceAIQuery, 1)
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
}

func TestConsumeQuotaConcurrentNeverExceedsCap(t *testing.T) {
	registry, repo := testRegistry(&SubscriptionRow{
		TenantID: "tenant-1",
		Plan:     PlanTrial,
		Status:   StatusActive,
	})

	snap, err := registry.PlanFor(context.Background(), "tenant-1")
	require.NoError(t, err)

	cap := snap.Quotas.AIQueryCap
	attempts := cap * 3

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if registry.ConsumeQuota(
				context.Background(), snap, ResourceAIQuery, 1,
			) == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, cap, granted)

	used, err := repo.Usage(
		context.Background(),
		"tenant-1",
		ResourceAIQuery,
		CurrentPeriod(time.Now()),
	)
	require.NoError(t, err)
	require.Equal(t, cap, used)
}

func TestStudentCounterSurvivesMonthlyPrune(t *testing.T) {
	registry, repo := testRegistry(&SubscriptionRow{
		TenantID: "tenant-1",
		Plan:     PlanTrial,
		Status:   StatusActive,
	})

	ctx := context.Background()
	snap, err := registry.PlanFor(ctx, "tenant-1")
	require.NoError(t, err)

	require.NoError(t, registry.ConsumeQuota(ctx, snap, ResourceStudent, 5))

	require.NoError(t, registry.ResetMonthlyCounters(ctx))

	// The roster count does not reset with the calendar.
	used, err := registry.Usage(ctx, "tenant-1", ResourceStudent)
	require.NoError(t, err)
	require.Equal(t, 5, used)

	// It lives in the lifetime bucket, not the current month's.
	monthly, err := repo.Usage(
		ctx, "tenant-1", ResourceStudent, CurrentPeriod(time.Now()))
	require.NoError(t, err)
	require.Zero(t, monthly)
}

func TestResetMonthlyCountersPrunesOnlyPastPeriods(t *testing.T) {
	registry, repo := testRegistry(&SubscriptionRow{
		TenantID: "tenant-1",
		Plan:     PlanTrial,
		Status:   StatusActive,
	})

	ctx := context.Background()
	_, err := repo.AddUsage(ctx, "tenant-1", ResourceAIQuery, "2024-01", 5, 50)
	require.NoError(t, err)
	_, err = repo.AddUsage(
		ctx, "tenant-1", ResourceAIQuery, CurrentPeriod(time.Now()), 5, 50)
	require.NoError(t, err)

	require.NoError(t, registry.ResetMonthlyCounters(ctx))
	require.NoError(t, registry.ResetMonthlyCounters(ctx))

	used, err := registry.Usage(ctx, "tenant-1", ResourceAIQuery)
	require.NoError(t, err)
	require.Equal(t, 5, used)

	stale, err := repo.Usage(ctx, "tenant-1", ResourceAIQuery, "2024-01")
	require.NoError(t, err)
	require.Zero(t, stale)
}
