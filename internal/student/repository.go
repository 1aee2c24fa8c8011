// AngelaMos | 2026
// repository.go

package student

import (
	"context"
	"fmt"

	"github.com/schooltino/api/internal/core"
	"github.com/schooltino/api/internal/guard"
)

// Repository reads and writes roster rows through a tenant scope. It
// never sees a bare connection; every statement goes through the guard.
type Repository interface {
	List(ctx context.Context, scope *guard.Scope) ([]Student, error)
	GetByID(ctx context.Context, scope *guard.Scope, id string) (*Student, error)
	Create(ctx context.Context, scope *guard.Scope, st *Student) error
	Update(ctx context.Context, scope *guard.Scope, st *Student) error
	Deactivate(ctx context.Context, scope *guard.Scope, id string) error
}

type repository struct{}

func NewRepository() Repository {
	return repository{}
}

const studentColumns = `id, tenant_id, student_number, full_name, class_name,
	section, guardian_name, guardian_mobile, password_hash, active,
	created_at, updated_at`

func (repository) List(
	ctx context.Context,
	scope *guard.Scope,
) ([]Student, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM students
		WHERE active = TRUE`,
		studentColumns)

	return guard.Select[Student](ctx, scope, query)
}

func (repository) GetByID(
	ctx context.Context,
	scope *guard.Scope,
	id string,
) (*Student, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM students
		WHERE id = $1`,
		studentColumns)

	return guard.Get[Student](ctx, scope, query, id)
}

func (repository) Create(
	ctx context.Context,
	scope *guard.Scope,
	st *Student,
) error {
	query := `
		INSERT INTO students
			(id, tenant_id, student_number, full_name, class_name, section,
			 guardian_name, guardian_mobile, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := scope.Insert(ctx, st, query,
		st.ID, st.TenantID, st.StudentNumber, st.FullName,
		st.ClassName, st.Section, st.GuardianName, st.GuardianMobile,
		st.PasswordHash, st.Active,
	)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

func (repository) Update(
	ctx context.Context,
	scope *guard.Scope,
	st *Student,
) error {
	query := `
		UPDATE students
		SET full_name = $2, class_name = $3, section = $4,
		    guardian_name = $5, guardian_mobile = $6, updated_at = NOW()
		WHERE id = $1`

	result, err := scope.Exec(ctx, query,
		st.ID, st.FullName, st.ClassName, st.Section,
		st.GuardianName, st.GuardianMobile,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update student: %w", core.ErrNotFound)
	}

	return nil
}

func (repository) Deactivate(
	ctx context.Context,
	scope *guard.Scope,
	id string,
) error {
	query := `
		UPDATE students
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1`

	result, err := scope.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("deactivate student: %w", core.ErrNotFound)
	}

	return nil
}
