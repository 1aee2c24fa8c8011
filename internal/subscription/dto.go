// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"

	"github.com/schooltino/api/internal/plan"
)

type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required,oneof=BASIC AI_POWERED CCTV_BIOMETRIC GPS_TRACKING AI_TEACHER"`
}

type UsageResponse struct {
	Students  int `json:"students"`
	AIQueries int `json:"ai_queries"`
}

type StatusResponse struct {
	Plan       plan.Plan     `json:"plan"`
	Status     plan.Status   `json:"status"`
	Trial      bool          `json:"trial"`
	StartedAt  time.Time     `json:"started_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	GraceUntil *time.Time    `json:"grace_until,omitempty"`
	Quotas     plan.Quotas   `json:"quotas"`
	Usage      UsageResponse `json:"usage"`
}

type SubscriptionResponse struct {
	Plan      plan.Plan   `json:"plan"`
	Status    plan.Status `json:"status"`
	Trial     bool        `json:"trial"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func toSubscriptionResponse(sub *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		Plan:      sub.Plan,
		Status:    sub.Status,
		Trial:     sub.Trial,
		ExpiresAt: sub.ExpiresAt,
	}
}
