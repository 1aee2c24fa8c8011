// AngelaMos | 2026
// entity.go

package subscription

import (
	"database/sql"
	"time"

	"github.com/schooltino/api/internal/plan"
)

const (
	TrialLength = 30 * 24 * time.Hour
	GraceLength = 7 * 24 * time.Hour
)

// Subscription is one tenant's commercial state. At most one row per
// tenant, enforced by the unique tenant_id column.
type Subscription struct {
	TenantID   string       `db:"tenant_id"`
	Plan       plan.Plan    `db:"plan"`
	Status     plan.Status  `db:"status"`
	Trial      bool         `db:"trial"`
	StartedAt  time.Time    `db:"started_at"`
	ExpiresAt  time.Time    `db:"expires_at"`
	GraceUntil sql.NullTime `db:"grace_until"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

// Advance folds elapsed time into the state machine and reports whether
// anything changed. It is idempotent: advancing twice with the same
// clock is a no-op the second time.
func (s *Subscription) Advance(now time.Time) bool {
	switch s.Status {
	case plan.StatusActive:
		if !now.After(s.ExpiresAt) {
			return false
		}
		if s.Trial {
			// Trials skip grace: there is nothing to renew.
			s.Status = plan.StatusExpired
			return true
		}
		s.Status = plan.StatusGrace
		s.GraceUntil = sql.NullTime{
			Time:  s.ExpiresAt.Add(GraceLength),
			Valid: true,
		}
		return true

	case plan.StatusGrace:
		if s.GraceUntil.Valid && now.After(s.GraceUntil.Time) {
			s.Status = plan.StatusExpired
			return true
		}
		return false
	}

	return false
}

// Renew moves the subscription to a paid plan for one more term.
func (s *Subscription) Renew(p plan.Plan, now time.Time, term time.Duration) {
	s.Plan = p
	s.Status = plan.StatusActive
	s.Trial = false
	s.StartedAt = now
	s.ExpiresAt = now.Add(term)
	s.GraceUntil = sql.NullTime{}
}

func (s *Subscription) Cancel() {
	s.Status = plan.StatusCancelled
	s.GraceUntil = sql.NullTime{}
}
