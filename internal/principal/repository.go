// AngelaMos | 2026
// repository.go

package principal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schooltino/api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Principal) error
	Get(ctx context.Context, class Class, id string) (*Principal, error)
	FindByIdentifier(ctx context.Context, identifier string) (*Principal, error)
	SetPassword(ctx context.Context, class Class, id, passwordHash string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type classTable struct {
	table      string
	identifier string
	hasRole    bool
}

var classTables = map[Class]classTable{
	ClassAdminStaff: {table: "admin_staff", identifier: "email", hasRole: true},
	ClassTeacher:    {table: "teachers", identifier: "email"},
	ClassStudent:    {table: "students", identifier: "student_number"},
	ClassParent:     {table: "parents", identifier: "mobile"},
}

func (r *repository) Create(ctx context.Context, p *Principal) error {
	ct, ok := classTables[p.Class]
	if !ok {
		return fmt.Errorf("create principal: %w", core.ErrInvalidInput)
	}

	var query string
	var args []any

	if ct.hasRole {
		query = fmt.Sprintf(`
			INSERT INTO %s (id, tenant_id, %s, full_name, role, password_hash, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at`,
			ct.table, ct.identifier)
		args = []any{
			p.ID, p.TenantID, p.Identifier,
			p.FullName, p.Role, p.PasswordHash, p.Active,
		}
	} else {
		query = fmt.Sprintf(`
			INSERT INTO %s (id, tenant_id, %s, full_name, password_hash, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`,
			ct.table, ct.identifier)
		args = []any{
			p.ID, p.TenantID, p.Identifier,
			p.FullName, p.PasswordHash, p.Active,
		}
	}

	var timestamps struct {
		CreatedAt sql.NullTime `db:"created_at"`
		UpdatedAt sql.NullTime `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &timestamps, query, args...); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create principal: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create principal: %w", err)
	}

	p.CreatedAt = timestamps.CreatedAt.Time
	p.UpdatedAt = timestamps.UpdatedAt.Time
	return nil
}

func (r *repository) Get(
	ctx context.Context,
	class Class,
	id string,
) (*Principal, error) {
	ct, ok := classTables[class]
	if !ok {
		return nil, fmt.Errorf("get principal: %w", core.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, %s AS identifier, full_name, %s AS role,
		       password_hash, active, created_at, updated_at
		FROM %s
		WHERE id = $1`,
		ct.identifier, roleColumn(ct), ct.table)

	var p Principal
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get principal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}

	p.Class = class
	return &p, nil
}

// FindByIdentifier resolves a login handle, trying the four populations
// in a fixed order. Email matching is case-insensitive; student numbers
// and parent mobiles match exactly. Identifiers are unique across
// tenants at enrollment, so the lookup needs no tenant hint.
func (r *repository) FindByIdentifier(
	ctx context.Context,
	identifier string,
) (*Principal, error) {
	for _, class := range lookupOrder {
		ct := classTables[class]

		match := fmt.Sprintf("%s = $1", ct.identifier)
		if ct.identifier == "email" {
			match = "LOWER(email) = LOWER($1)"
		}
		if class == ClassParent {
			match = "(mobile = $1 OR national_id = $1)"
		}

		query := fmt.Sprintf(`
			SELECT id, tenant_id, %s AS identifier, full_name, %s AS role,
			       password_hash, active, created_at, updated_at
			FROM %s
			WHERE %s`,
			ct.identifier, roleColumn(ct), ct.table, match)

		var p Principal
		err := r.db.GetContext(ctx, &p, query, identifier)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find principal: %w", err)
		}

		p.Class = class
		return &p, nil
	}

	return nil, fmt.Errorf("find principal: %w", core.ErrNotFound)
}

func (r *repository) SetPassword(
	ctx context.Context,
	class Class,
	id, passwordHash string,
) error {
	ct, ok := classTables[class]
	if !ok {
		return fmt.Errorf("set password: %w", core.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`,
		ct.table)

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set password: %w", core.ErrNotFound)
	}

	return nil
}

func roleColumn(ct classTable) string {
	if ct.hasRole {
		return "role"
	}
	return "''"
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
