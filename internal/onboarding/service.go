// AngelaMos | 2026
// service.go

package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
	"github.com/schooltino/api/internal/principal"
	"github.com/schooltino/api/internal/subscription"
	"github.com/schooltino/api/internal/tenant"
)

const moduleTag = "onboarding"

// TokenIssuer mints the first admin session after a successful signup.
type TokenIssuer interface {
	Issue(principalID, class, tenantID string, ttl time.Duration) (string, error)
}

// txRepos bundles the stores that share one onboarding transaction.
type txRepos struct {
	tenants       tenant.Repository
	principals    principal.Repository
	subscriptions subscription.Repository
}

// txRunner opens a transaction, hands transaction-scoped repositories to
// fn and commits only when fn returns nil. Tests substitute their own.
type txRunner func(ctx context.Context, fn func(r txRepos) error) error

type Service struct {
	run      txRunner
	tokens   TokenIssuer
	recorder audit.Recorder
	logger   *slog.Logger
	tokenTTL time.Duration
}

func NewService(
	db *sqlx.DB,
	tokens TokenIssuer,
	recorder audit.Recorder,
	logger *slog.Logger,
	tokenTTL time.Duration,
) *Service {
	run := func(ctx context.Context, fn func(r txRepos) error) error {
		return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
			return fn(txRepos{
				tenants:       tenant.NewRepository(tx),
				principals:    principal.NewRepository(tx),
				subscriptions: subscription.NewRepository(tx),
			})
		})
	}

	return &Service{
		run:      run,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// Onboard provisions a school in one transaction: the tenant record, its
// first administrative principal and a thirty-day trial subscription.
// Any failure leaves no trace of the attempt. The response carries a
// ready-to-use session token so the admin lands signed in.
func (s *Service) Onboard(
	ctx context.Context,
	req OnboardRequest,
	clientAddr string,
) (*OnboardResponse, error) {
	passwordHash, err := core.HashPassword(req.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tenantID := uuid.New().String()
	adminID := uuid.New().String()
	now := time.Now()
	trial := subscription.StartTrial(tenantID, now)

	err = s.run(ctx, func(r txRepos) error {
		if err := r.tenants.Create(ctx, &tenant.Tenant{
			ID:      tenantID,
			Name:    req.SchoolName,
			Board:   req.Board,
			Contact: req.Contact,
			Active:  true,
		}); err != nil {
			return err
		}

		if err := r.tenants.SeedClasses(
			ctx, tenantID, tenant.DefaultClassNames,
		); err != nil {
			return err
		}

		if err := r.principals.Create(ctx, &principal.Principal{
			ID:           adminID,
			TenantID:     tenantID,
			Class:        principal.ClassAdminStaff,
			Identifier:   req.AdminEmail,
			FullName:     req.AdminFullName,
			Role:         principal.RoleDirector,
			PasswordHash: passwordHash,
			Active:       true,
		}); err != nil {
			return err
		}

		return r.subscriptions.Create(ctx, trial)
	})
	if err != nil {
		return nil, fmt.Errorf("onboard: %w", err)
	}

	signed, err := s.tokens.Issue(
		adminID, string(principal.ClassAdminStaff), tenantID, s.tokenTTL)
	if err != nil {
		// The tenant exists; the admin can still log in normally.
		s.logger.Error("onboarding token not issued",
			"tenant_id", tenantID,
			"error", err,
		)
		return nil, fmt.Errorf("onboard: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: adminID,
		TenantID:    tenantID,
		Module:      moduleTag,
		Action:      audit.ActionTenantOnboarded,
		Details: map[string]any{
			"school": req.SchoolName,
			"board":  req.Board,
		},
		ClientAddr: clientAddr,
	})

	s.logger.Info("tenant onboarded",
		"tenant_id", tenantID,
		"school", req.SchoolName,
	)

	return &OnboardResponse{
		TenantID:  tenantID,
		AdminID:   adminID,
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: now.Add(s.tokenTTL),
		Plan:      string(plan.PlanTrial),
		TrialEnds: trial.ExpiresAt,
	}, nil
}
