// AngelaMos | 2026
// service.go

package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/principal"
)

const (
	resetKeyPrefix = "pwreset:"
	resetCodeTTL   = 15 * time.Minute
	moduleTag      = "credentials"
)

// TokenIssuer is the credential service's view of the token codec.
type TokenIssuer interface {
	Issue(principalID, class, tenantID string, ttl time.Duration) (string, error)
	Revoke(ctx context.Context, principalID string) error
}

// Notifier delivers reset codes out of band. A nil notifier drops them,
// which is the configuration until a messaging adapter is wired.
type Notifier interface {
	DeliverResetCode(ctx context.Context, p *principal.Principal, code string)
}

type Service struct {
	principals principal.Repository
	tokens     TokenIssuer
	redis      *redis.Client
	recorder   audit.Recorder
	notifier   Notifier
	tokenTTL   time.Duration
}

func NewService(
	principals principal.Repository,
	tokens TokenIssuer,
	redisClient *redis.Client,
	recorder audit.Recorder,
	notifier Notifier,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		principals: principals,
		tokens:     tokens,
		redis:      redisClient,
		recorder:   recorder,
		notifier:   notifier,
		tokenTTL:   tokenTTL,
	}
}

// Enroll creates a credentialed principal inside the actor's tenant.
func (s *Service) Enroll(
	ctx context.Context,
	tenantID, actorID, clientAddr string,
	req EnrollRequest,
) (*principal.Principal, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &principal.Principal{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Class:        principal.Class(req.Class),
		Identifier:   req.Identifier,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: passwordHash,
		Active:       true,
	}

	if err := s.principals.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    tenantID,
		Module:      moduleTag,
		Action:      audit.ActionEnroll,
		Details: map[string]any{
			"enrolled_id": p.ID,
			"class":       req.Class,
		},
		ClientAddr: clientAddr,
	})

	return p, nil
}

// Authenticate resolves the identifier and verifies the password. Every
// failure path answers the same bad-credentials error, including unknown
// identifiers (verified against a dummy hash to keep timing flat) and
// deactivated principals.
func (s *Service) Authenticate(
	ctx context.Context,
	identifier, password string,
) (*LoginResponse, error) {
	p, err := s.principals.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing flattening against enumeration
			_, _ = core.VerifyPasswordTimingSafe(password, nil)
			return nil, core.ErrBadCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(password, &p.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid || !p.Active {
		return nil, core.ErrBadCredentials
	}

	signed, err := s.tokens.Issue(p.ID, string(p.Class), p.TenantID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: time.Now().Add(s.tokenTTL),
		Principal: toPrincipalResponse(p),
	}, nil
}

// RequestReset issues a one-time code for the identifier. The caller
// always gets the same answer, so the endpoint leaks nothing about
// which identifiers exist. Only the code's hash is stored.
func (s *Service) RequestReset(
	ctx context.Context,
	identifier, clientAddr string,
) error {
	p, err := s.principals.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("request reset: %w", err)
	}

	code, err := core.GenerateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	key := resetKeyPrefix + core.HashToken(code)
	value := string(p.Class) + ":" + p.ID

	if err := s.redis.Set(ctx, key, value, resetCodeTTL).Err(); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if s.notifier != nil {
		s.notifier.DeliverResetCode(ctx, p, code)
	}

	// The code itself never appears in logs or responses.
	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: p.ID,
		TenantID:    p.TenantID,
		Module:      moduleTag,
		Action:      audit.ActionPasswordReset,
		Details:     map[string]any{"stage": "requested"},
		ClientAddr:  clientAddr,
	})

	return nil
}

// ConsumeReset redeems a one-time code. GETDEL makes redemption atomic:
// two concurrent confirms with the same code cannot both succeed.
func (s *Service) ConsumeReset(
	ctx context.Context,
	code, newPassword, clientAddr string,
) error {
	key := resetKeyPrefix + core.HashToken(code)

	value, err := s.redis.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("consume reset: %w", core.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("consume reset: %w", err)
	}

	class, id, ok := strings.Cut(value, ":")
	if !ok {
		return fmt.Errorf("consume reset: %w", core.ErrInvalidInput)
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.principals.SetPassword(
		ctx, principal.Class(class), id, passwordHash,
	); err != nil {
		return fmt.Errorf("consume reset: %w", err)
	}

	// Outstanding tokens predate the new password; cut them off. The
	// revocation list is advisory and tokens are short-lived, so a
	// store failure here does not undo a completed reset.
	if err := s.tokens.Revoke(ctx, id); err != nil {
		slog.Warn("token revocation after reset failed",
			"principal_id", id,
			"error", err,
		)
	}

	p, err := s.principals.Get(ctx, principal.Class(class), id)
	if err == nil {
		s.recorder.Record(ctx, audit.Entry{
			PrincipalID: id,
			TenantID:    p.TenantID,
			Module:      moduleTag,
			Action:      audit.ActionPasswordReset,
			Details:     map[string]any{"stage": "confirmed"},
			ClientAddr:  clientAddr,
		})
	}

	return nil
}

// Revoke invalidates all outstanding tokens for a principal in the
// actor's tenant.
func (s *Service) Revoke(
	ctx context.Context,
	actorTenantID, actorID, clientAddr string,
	req RevokeRequest,
) error {
	target, err := s.principals.Get(
		ctx, principal.Class(req.Class), req.PrincipalID)
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	if target.TenantID != actorTenantID {
		return fmt.Errorf("revoke: %w", core.ErrCrossTenant)
	}

	if err := s.tokens.Revoke(ctx, target.ID); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: actorID,
		TenantID:    actorTenantID,
		Module:      moduleTag,
		Action:      audit.ActionRevoke,
		Details:     map[string]any{"revoked_id": target.ID},
		ClientAddr:  clientAddr,
	})

	return nil
}

func toPrincipalResponse(p *principal.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:         p.ID,
		TenantID:   p.TenantID,
		Class:      string(p.Class),
		Identifier: p.Identifier,
		FullName:   p.FullName,
		Role:       p.Role,
	}
}
