// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schooltino/api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	SeedClasses(ctx context.Context, tenantID string, names []string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Tenant) error {
	query := `
		INSERT INTO tenants (id, name, board, contact, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, t, query,
		t.ID,
		t.Name,
		t.Board,
		t.Contact,
		t.Active,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}

func (r *repository) SeedClasses(
	ctx context.Context,
	tenantID string,
	names []string,
) error {
	query := `
		INSERT INTO classes (id, tenant_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, name) DO NOTHING`

	for _, name := range names {
		if _, err := r.db.ExecContext(
			ctx, query, uuid.New().String(), tenantID, name,
		); err != nil {
			return fmt.Errorf("seed class %q: %w", name, err)
		}
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
