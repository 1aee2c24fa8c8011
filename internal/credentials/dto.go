// AngelaMos | 2026
// dto.go

package credentials

import (
	"time"
)

// LoginRequest accepts either the generic identifier field or the email
// shorthand clients already send. No minimum length on the password:
// a wrong guess of any length gets the same bad-credentials answer.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"omitempty,max=255"`
	Email      string `json:"email"      validate:"omitempty,max=255"`
	Password   string `json:"password"   validate:"required,max=128"`
}

func (r *LoginRequest) Handle() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Email
}

type PrincipalResponse struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Class      string `json:"class"`
	Identifier string `json:"identifier"`
	FullName   string `json:"full_name"`
	Role       string `json:"role,omitempty"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	TokenType string            `json:"token_type"`
	ExpiresAt time.Time         `json:"expires_at"`
	Principal PrincipalResponse `json:"principal"`
}

type EnrollRequest struct {
	Class      string `json:"class"      validate:"required,oneof=ADMIN_STAFF TEACHER STUDENT PARENT"`
	Identifier string `json:"identifier" validate:"required,max=255"`
	FullName   string `json:"full_name"  validate:"required,min=1,max=100"`
	Role       string `json:"role"       validate:"omitempty,oneof=director principal vice_principal accountant clerk manager"`
	Password   string `json:"password"   validate:"required,min=8,max=128"`
}

type ResetRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
}

type ResetConfirmRequest struct {
	Code        string `json:"code"         validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type RevokeRequest struct {
	Class       string `json:"class"        validate:"required,oneof=ADMIN_STAFF TEACHER STUDENT PARENT"`
	PrincipalID string `json:"principal_id" validate:"required,uuid"`
}
