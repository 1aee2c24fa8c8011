// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/plan"
)

const moduleTag = "billing"

// Term is the paid subscription length bought by one payment.
const Term = 30 * 24 * time.Hour

// PaymentVerifier charges the tenant through the payment adapter. A
// declined or failed charge keeps the subscription untouched.
type PaymentVerifier interface {
	Charge(ctx context.Context, tenantID string, amount int) error
}

type Service struct {
	repo     Repository
	payments PaymentVerifier
	registry *plan.Registry
	recorder audit.Recorder
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	payments PaymentVerifier,
	registry *plan.Registry,
	recorder audit.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		payments: payments,
		registry: registry,
		recorder: recorder,
		logger:   logger,
	}
}

// StartTrial creates the tenant's initial subscription. Used by
// onboarding inside its transaction.
func StartTrial(tenantID string, now time.Time) *Subscription {
	return &Subscription{
		TenantID:  tenantID,
		Plan:      plan.PlanTrial,
		Status:    plan.StatusActive,
		Trial:     true,
		StartedAt: now,
		ExpiresAt: now.Add(TrialLength),
	}
}

// Subscribe charges the tenant and moves it onto the requested plan.
// Any current status (trial, grace, expired, cancelled) converges to
// ACTIVE on successful payment.
func (s *Service) Subscribe(
	ctx context.Context,
	tenantID, actorID, clientAddr string,
	target plan.Plan,
) (*Subscription, error) {
	def, ok := plan.Lookup(target)
	if !ok || target == plan.PlanTrial {
		return nil, fmt.Errorf("subscribe: %w", core.ErrInvalidInput)
	}

	sub, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	if err := s.payments.Charge(ctx, tenantID, def.MonthlyPrice); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	previous := sub.Plan
	sub.Renew(target, time.Now(), Term)

	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    tenantID,
		Module:      moduleTag,
		Action:      audit.ActionSubscriptionChange,
		Details: map[string]any{
			"from": previous,
			"to":   target,
		},
		ClientAddr: clientAddr,
	})

	return sub, nil
}

// Cancel ends the subscription at the tenant's request. Entitlements
// collapse to read-only immediately.
func (s *Service) Cancel(
	ctx context.Context,
	tenantID, actorID, clientAddr string,
) (*Subscription, error) {
	sub, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}

	sub.Cancel()

	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    tenantID,
		Module:      moduleTag,
		Action:      audit.ActionSubscriptionChange,
		Details:     map[string]any{"to": plan.StatusCancelled},
		ClientAddr:  clientAddr,
	})

	return sub, nil
}

// Status reports the subscription with current quota usage.
func (s *Service) Status(
	ctx context.Context,
	tenantID string,
) (*StatusResponse, error) {
	sub, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	def, _ := plan.Lookup(sub.Plan)

	students, err := s.registry.Usage(ctx, tenantID, plan.ResourceStudent)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	aiQueries, err := s.registry.Usage(ctx, tenantID, plan.ResourceAIQuery)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	resp := &StatusResponse{
		Plan:      sub.Plan,
		Status:    sub.Status,
		Trial:     sub.Trial,
		StartedAt: sub.StartedAt,
		ExpiresAt: sub.ExpiresAt,
		Quotas:    def.Quotas,
		Usage: UsageResponse{
			Students:  students,
			AIQueries: aiQueries,
		},
	}
	if sub.GraceUntil.Valid {
		resp.GraceUntil = &sub.GraceUntil.Time
	}

	return resp, nil
}

// AdvanceAll moves every overdue subscription through the state machine.
// Safe to run on overlapping ticks: Advance is idempotent and only
// changed rows are written back.
func (s *Service) AdvanceAll(ctx context.Context, now time.Time) error {
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("advance subscriptions: %w", err)
	}

	for i := range due {
		sub := &due[i]
		if !sub.Advance(now) {
			continue
		}

		if err := s.repo.Save(ctx, sub); err != nil {
			s.logger.Error("subscription advance not saved",
				"tenant_id", sub.TenantID,
				"error", err,
			)
			continue
		}

		s.logger.Info("subscription advanced",
			"tenant_id", sub.TenantID,
			"status", sub.Status,
		)
	}

	return nil
}
