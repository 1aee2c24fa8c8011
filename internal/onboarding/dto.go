// AngelaMos | 2026
// dto.go

package onboarding

import "time"

type OnboardRequest struct {
	SchoolName    string `json:"school_name" validate:"required,min=2,max=200"`
	Board         string `json:"board" validate:"required,max=100"`
	Contact       string `json:"contact" validate:"required,max=200"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminFullName string `json:"admin_full_name" validate:"required,min=2,max=200"`
	AdminPassword string `json:"admin_password" validate:"required,min=8,max=128"`
}

type OnboardResponse struct {
	TenantID  string    `json:"tenant_id"`
	AdminID   string    `json:"admin_id"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Plan      string    `json:"plan"`
	TrialEnds time.Time `json:"trial_ends"`
}
