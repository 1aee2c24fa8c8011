// AngelaMos | 2026
// service_test.go

package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/principal"
)

type fakePrincipalRepo struct {
	byIdentifier map[string]*principal.Principal
	byID         map[string]*principal.Principal
	passwords    map[string]string
	created      []*principal.Principal
}

func newFakePrincipalRepo() *fakePrincipalRepo {
	return &fakePrincipalRepo{
		byIdentifier: make(map[string]*principal.Principal),
		byID:         make(map[string]*principal.Principal),
		passwords:    make(map[string]string),
	}
}

func (f *fakePrincipalRepo) add(p *principal.Principal) {
	f.byIdentifier[p.Identifier] = p
	f.byID[p.ID] = p
}

func (f *fakePrincipalRepo) Create(
	_ context.Context,
	p *principal.Principal,
) error {
	if _, exists := f.byIdentifier[p.Identifier]; exists {
		return core.ErrDuplicateKey
	}
	f.add(p)
	f.created = append(f.created, p)
	return nil
}

func (f *fakePrincipalRepo) Get(
	_ context.Context,
	_ principal.Class,
	id string,
) (*principal.Principal, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f *fakePrincipalRepo) FindByIdentifier(
	_ context.Context,
	identifier string,
) (*principal.Principal, error) {
	p, ok := f.byIdentifier[identifier]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p, nil
}

func (f *fakePrincipalRepo) SetPassword(
	_ context.Context,
	_ principal.Class,
	id, passwordHash string,
) error {
	if _, ok := f.byID[id]; !ok {
		return core.ErrNotFound
	}
	f.passwords[id] = passwordHash
	return nil
}

type fakeIssuer struct {
	issued    int
	revoked   []string
	revokeErr error
}

func (f *fakeIssuer) Issue(
	principalID, class, tenantID string,
	_ time.Duration,
) (string, error) {
	f.issued++
	return "token:" + principalID + ":" + class + ":" + tenantID, nil
}

func (f *fakeIssuer) Revoke(_ context.Context, principalID string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, principalID)
	return nil
}

type nullRecorder struct{}

func (nullRecorder) Record(context.Context, audit.Entry) {}

type codeCapture struct {
	code string
}

func (c *codeCapture) DeliverResetCode(
	_ context.Context,
	_ *principal.Principal,
	code string,
) {
	c.code = code
}

func seedPrincipal(t *testing.T, repo *fakePrincipalRepo, password string) *principal.Principal {
	t.Helper()

	hash, err := core.HashPassword(password)
	require.NoError(t, err)

	p := &principal.Principal{
		ID:           "p1",
		TenantID:     "tenant-1",
		Class:        principal.ClassAdminStaff,
		Identifier:   "a1@t1.example",
		FullName:     "Asha Verma",
		Role:         principal.RoleDirector,
		PasswordHash: hash,
		Active:       true,
	}
	repo.add(p)
	return p
}

func testService(
	t *testing.T,
	repo *fakePrincipalRepo,
	notifier Notifier,
) (*Service, *fakeIssuer) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	issuer := &fakeIssuer{}
	svc := NewService(
		repo, issuer, client, nullRecorder{}, notifier, 24*time.Hour)
	return svc, issuer
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newFakePrincipalRepo()
	p := seedPrincipal(t, repo, "pw-a1-secret")
	svc, issuer := testService(t, repo, nil)

	resp, err := svc.Authenticate(
		context.Background(), "a1@t1.example", "pw-a1-secret")
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Contains(t, resp.Token, p.ID)
	require.Equal(t, "tenant-1", resp.Principal.TenantID)
	require.Equal(t, 1, issuer.issued)
}

func TestAuthenticateUniformFailures(t *testing.T) {
	repo := newFakePrincipalRepo()
	p := seedPrincipal(t, repo, "pw-a1-secret")
	svc, _ := testService(t, repo, nil)

	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "unknown@t1.example", "pw-a1-secret")
	require.ErrorIs(t, err, core.ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "a1@t1.example", "wrong-password")
	require.ErrorIs(t, err, core.ErrBadCredentials)

	p.Active = false
	_, err = svc.Authenticate(ctx, "a1@t1.example", "pw-a1-secret")
	require.ErrorIs(t, err, core.ErrBadCredentials)
}

func TestRequestResetUnknownIdentifierIsSilent(t *testing.T) {
	repo := newFakePrincipalRepo()
	capture := &codeCapture{}
	svc, _ := testService(t, repo, capture)

	err := svc.RequestReset(
		context.Background(), "unknown@t1.example", "198.51.100.7")
	require.NoError(t, err)
	require.Empty(t, capture.code)
}

func TestResetRoundTrip(t *testing.T) {
	repo := newFakePrincipalRepo()
	p := seedPrincipal(t, repo, "pw-a1-secret")
	capture := &codeCapture{}
	svc, issuer := testService(t, repo, capture)

	ctx := context.Background()

	require.NoError(
		t,
		svc.RequestReset(ctx, "a1@t1.example", "198.51.100.7"),
	)
	require.Len(t, capture.code, 6)

	require.NoError(
		t,
		svc.ConsumeReset(ctx, capture.code, "new-password-9", "198.51.100.7"),
	)

	newHash := repo.passwords[p.ID]
	require.NotEmpty(t, newHash)

	valid, err := core.VerifyPassword("new-password-9", newHash)
	require.NoError(t, err)
	require.True(t, valid)

	require.Equal(t, []string{p.ID}, issuer.revoked)

	// The code is one-time: a second redemption fails.
	err = svc.ConsumeReset(ctx, capture.code, "another-password", "198.51.100.7")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestConsumeResetSucceedsWhenRevocationFails(t *testing.T) {
	repo := newFakePrincipalRepo()
	p := seedPrincipal(t, repo, "pw-a1-secret")
	capture := &codeCapture{}
	svc, issuer := testService(t, repo, capture)
	issuer.revokeErr = errors.New("revocation store down")

	ctx := context.Background()

	require.NoError(
		t,
		svc.RequestReset(ctx, "a1@t1.example", "198.51.100.7"),
	)

	// The password change completed; a revocation outage must not
	// surface as a failed reset.
	require.NoError(
		t,
		svc.ConsumeReset(ctx, capture.code, "new-password-9", "198.51.100.7"),
	)

	valid, err := core.VerifyPassword("new-password-9", repo.passwords[p.ID])
	require.NoError(t, err)
	require.True(t, valid)
}

func TestConsumeResetBadCode(t *testing.T) {
	repo := newFakePrincipalRepo()
	seedPrincipal(t, repo, "pw-a1-secret")
	svc, _ := testService(t, repo, nil)

	err := svc.ConsumeReset(
		context.Background(), "000000", "new-password-9", "198.51.100.7")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestEnrollCreatesActivePrincipal(t *testing.T) {
	repo := newFakePrincipalRepo()
	svc, _ := testService(t, repo, nil)

	p, err := svc.Enroll(
		context.Background(),
		"tenant-1", "admin-1", "198.51.100.7",
		EnrollRequest{
			Class:      "TEACHER",
			Identifier: "t9@t1.example",
			FullName:   "Ravi Kumar",
			Password:   "teacher-pass-1",
		},
	)
	require.NoError(t, err)
	require.True(t, p.Active)
	require.Equal(t, "tenant-1", p.TenantID)
	require.Equal(t, principal.ClassTeacher, p.Class)
	require.NotEqual(t, "teacher-pass-1", p.PasswordHash)
}

func TestRevokeRefusesForeignTenant(t *testing.T) {
	repo := newFakePrincipalRepo()
	p := seedPrincipal(t, repo, "pw-a1-secret")
	p.TenantID = "tenant-2"
	svc, issuer := testService(t, repo, nil)

	err := svc.Revoke(
		context.Background(),
		"tenant-1", "admin-1", "198.51.100.7",
		RevokeRequest{Class: "ADMIN_STAFF", PrincipalID: p.ID},
	)
	require.ErrorIs(t, err, core.ErrCrossTenant)
	require.Empty(t, issuer.revoked)
}
