// AngelaMos | 2026
// recorder.go

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/schooltino/api/internal/core"
)

// Action tags shared by the core surfaces. Business modules add their own.
const (
	ActionEnroll             = "ENROLL"
	ActionPasswordReset      = "PASSWORD_RESET"
	ActionRevoke             = "REVOKE"
	ActionCrossTenant        = "CROSS_TENANT_VIOLATION"
	ActionSubscriptionChange = "SUBSCRIPTION_CHANGE"
	ActionTenantOnboarded    = "TENANT_ONBOARDED"
	ActionCreate             = "CREATE"
	ActionUpdate             = "UPDATE"
	ActionDelete             = "DELETE"
)

// Entry is one append-only audit record. Details holds a summary of the
// mutation, never full payloads with secrets.
type Entry struct {
	ID          string         `db:"id"`
	PrincipalID string         `db:"principal_id"`
	TenantID    string         `db:"tenant_id"`
	Module      string         `db:"module"`
	Action      string         `db:"action"`
	Details     map[string]any `db:"-"`
	ClientAddr  string         `db:"client_addr"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Recorder appends audit entries. Recording is best-effort: a sink outage
// must never fail the mutation it describes.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	db     core.DBTX
	logger *slog.Logger
}

func NewRecorder(db core.DBTX, logger *slog.Logger) Recorder {
	return &recorder{db: db, logger: logger}
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		details = []byte("{}")
	}

	query := `
		INSERT INTO audit_log
			(id, principal_id, tenant_id, module, action, details,
			 client_addr, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PrincipalID,
		entry.TenantID,
		entry.Module,
		entry.Action,
		details,
		entry.ClientAddr,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Warn("audit entry dropped",
			"module", entry.Module,
			"action", entry.Action,
			"tenant_id", entry.TenantID,
			"error", err,
		)
	}
}
