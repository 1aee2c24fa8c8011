// AngelaMos | 2026
// service.go

package student

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/guard"
)

const moduleTag = "students"

type Service struct {
	repo     Repository
	db       core.DBTX
	recorder audit.Recorder
}

func NewService(
	repo Repository,
	db core.DBTX,
	recorder audit.Recorder,
) *Service {
	return &Service{
		repo:     repo,
		db:       db,
		recorder: recorder,
	}
}

// ScopeFor builds the per-request tenant scope that every roster
// statement runs under.
func (s *Service) ScopeFor(
	tenantID, principalID, clientAddr string,
) *guard.Scope {
	return guard.NewScope(
		s.db, s.recorder, tenantID, principalID, clientAddr, moduleTag)
}

func (s *Service) List(
	ctx context.Context,
	scope *guard.Scope,
) ([]Student, error) {
	return s.repo.List(ctx, scope)
}

func (s *Service) Get(
	ctx context.Context,
	scope *guard.Scope,
	id string,
) (*Student, error) {
	return s.repo.GetByID(ctx, scope, id)
}

func (s *Service) Create(
	ctx context.Context,
	scope *guard.Scope,
	actorID, clientAddr string,
	req CreateRequest,
) (*Student, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	st := &Student{
		ID:             uuid.New().String(),
		TenantID:       scope.TenantID(),
		StudentNumber:  req.StudentNumber,
		FullName:       req.FullName,
		ClassName:      req.ClassName,
		Section:        req.Section,
		GuardianName:   req.GuardianName,
		GuardianMobile: req.GuardianMobile,
		PasswordHash:   passwordHash,
		Active:         true,
	}

	if err := s.repo.Create(ctx, scope, st); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    scope.TenantID(),
		Module:      moduleTag,
		Action:      audit.ActionCreate,
		Details: map[string]any{
			"student_id":     st.ID,
			"student_number": st.StudentNumber,
		},
		ClientAddr: clientAddr,
	})

	return st, nil
}

// Update applies roster edits. A request body carrying a foreign
// tenant_id is refused and audited before any statement runs.
func (s *Service) Update(
	ctx context.Context,
	scope *guard.Scope,
	actorID, clientAddr, id string,
	req UpdateRequest,
) (*Student, error) {
	if err := scope.CheckWrite(ctx, Student{
		ID:       id,
		TenantID: req.TenantID,
	}); err != nil {
		return nil, err
	}

	st := &Student{
		ID:             id,
		FullName:       req.FullName,
		ClassName:      req.ClassName,
		Section:        req.Section,
		GuardianName:   req.GuardianName,
		GuardianMobile: req.GuardianMobile,
	}

	if err := s.repo.Update(ctx, scope, st); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    scope.TenantID(),
		Module:      moduleTag,
		Action:      audit.ActionUpdate,
		Details:     map[string]any{"student_id": id},
		ClientAddr:  clientAddr,
	})

	return s.repo.GetByID(ctx, scope, id)
}

// Remove deactivates the roster row. The record stays for history and
// audit; the student can no longer log in or appear in listings.
func (s *Service) Remove(
	ctx context.Context,
	scope *guard.Scope,
	actorID, clientAddr, id string,
) error {
	if err := s.repo.Deactivate(ctx, scope, id); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    scope.TenantID(),
		Module:      moduleTag,
		Action:      audit.ActionDelete,
		Details:     map[string]any{"student_id": id},
		ClientAddr:  clientAddr,
	})

	return nil
}
