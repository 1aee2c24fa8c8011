// AngelaMos | 2026
// guard.go

package guard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/schooltino/api/internal/audit"
	"github.com/schooltino/api/internal/core"
)

// TenantTagged is implemented by every persisted record that carries a
// tenant tag. The guard refuses to read or write records whose tag
// disagrees with the scope.
type TenantTagged interface {
	TenantTag() string
}

// Scope is the single choke point for tenant-scoped data access. Every
// read predicate gets the scope's tenant id appended, writes are checked
// against it, and returned rows are post-verified. Repositories hold a
// Scope instead of a bare DBTX.
type Scope struct {
	db          core.DBTX
	recorder    audit.Recorder
	tenantID    string
	principalID string
	clientAddr  string
	module      string
}

func NewScope(
	db core.DBTX,
	recorder audit.Recorder,
	tenantID, principalID, clientAddr, module string,
) *Scope {
	return &Scope{
		db:          db,
		recorder:    recorder,
		tenantID:    tenantID,
		principalID: principalID,
		clientAddr:  clientAddr,
		module:      module,
	}
}

func (s *Scope) TenantID() string { return s.tenantID }

// scopeQuery appends the tenant predicate to a query that already has a
// WHERE clause. The predicate is added, never substituted, so callers
// cannot widen the scope by supplying their own tenant condition.
func (s *Scope) scopeQuery(query string, args []any) (string, []any, error) {
	if !strings.Contains(strings.ToUpper(query), "WHERE") {
		return "", nil, fmt.Errorf(
			"scoped query must carry a WHERE clause: %w", core.ErrInvalidInput)
	}

	scoped := fmt.Sprintf("%s AND tenant_id = $%d", query, len(args)+1)
	return scoped, append(args, s.tenantID), nil
}

// Get fetches a single record, scoped and post-verified. A predicate
// miss and a post-verification mismatch are deliberately distinct: the
// first is a plain not-found, the second is a violation.
func Get[T TenantTagged](
	ctx context.Context,
	s *Scope,
	query string,
	args ...any,
) (*T, error) {
	scoped, scopedArgs, err := s.scopeQuery(query, args)
	if err != nil {
		return nil, err
	}

	var record T
	err = s.db.GetContext(ctx, &record, scoped, scopedArgs...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scoped get: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scoped get: %w", err)
	}

	if record.TenantTag() != s.tenantID {
		s.violation(ctx, map[string]any{
			"operation":    "get",
			"record_tag":   record.TenantTag(),
			"scope_tenant": s.tenantID,
		})
		return nil, fmt.Errorf("scoped get: %w", core.ErrCrossTenant)
	}

	return &record, nil
}

// Select fetches a scoped list. Rows whose tag disagrees are dropped
// and reported rather than failing the whole read.
func Select[T TenantTagged](
	ctx context.Context,
	s *Scope,
	query string,
	args ...any,
) ([]T, error) {
	scoped, scopedArgs, err := s.scopeQuery(query, args)
	if err != nil {
		return nil, err
	}

	var records []T
	if err := s.db.SelectContext(ctx, &records, scoped, scopedArgs...); err != nil {
		return nil, fmt.Errorf("scoped select: %w", err)
	}

	verified := records[:0]
	for _, record := range records {
		if record.TenantTag() != s.tenantID {
			s.violation(ctx, map[string]any{
				"operation":    "select",
				"record_tag":   record.TenantTag(),
				"scope_tenant": s.tenantID,
			})
			continue
		}
		verified = append(verified, record)
	}

	return verified, nil
}

// CheckWrite refuses records whose explicit tenant tag disagrees with
// the scope. Records with an empty tag are stamped by the caller before
// insert.
func (s *Scope) CheckWrite(ctx context.Context, record TenantTagged) error {
	tag := record.TenantTag()
	if tag == "" || tag == s.tenantID {
		return nil
	}

	s.violation(ctx, map[string]any{
		"operation":    "write",
		"record_tag":   tag,
		"scope_tenant": s.tenantID,
	})
	return fmt.Errorf("scoped write: %w", core.ErrCrossTenant)
}

// Exec runs a scoped mutation (UPDATE or DELETE with a WHERE clause).
func (s *Scope) Exec(
	ctx context.Context,
	query string,
	args ...any,
) (sql.Result, error) {
	scoped, scopedArgs, err := s.scopeQuery(query, args)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, scoped, scopedArgs...)
	if err != nil {
		return nil, fmt.Errorf("scoped exec: %w", err)
	}

	return result, nil
}

// Insert runs an unscoped statement after CheckWrite has vouched for the
// record. Provided so repositories never touch the bare DBTX.
func (s *Scope) Insert(
	ctx context.Context,
	record TenantTagged,
	query string,
	args ...any,
) (sql.Result, error) {
	if err := s.CheckWrite(ctx, record); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scoped insert: %w", err)
	}

	return result, nil
}

func (s *Scope) violation(ctx context.Context, details map[string]any) {
	s.recorder.Record(ctx, audit.Entry{
		PrincipalID: s.principalID,
		TenantID:    s.tenantID,
		Module:      s.module,
		Action:      audit.ActionCrossTenant,
		Details:     details,
		ClientAddr:  s.clientAddr,
	})
}
