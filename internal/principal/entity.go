// AngelaMos | 2026
// entity.go

package principal

import (
	"time"
)

// Class partitions principals into the four account populations. Each
// class is backed by its own table and its own identifier scheme.
type Class string

const (
	ClassAdminStaff Class = "ADMIN_STAFF"
	ClassTeacher    Class = "TEACHER"
	ClassStudent    Class = "STUDENT"
	ClassParent     Class = "PARENT"
)

// lookupOrder fixes the resolution sequence for shared identifiers. A
// student number colliding with a staff email resolves to the staff row.
var lookupOrder = []Class{
	ClassAdminStaff,
	ClassTeacher,
	ClassStudent,
	ClassParent,
}

func (c Class) Valid() bool {
	switch c {
	case ClassAdminStaff, ClassTeacher, ClassStudent, ClassParent:
		return true
	}
	return false
}

const (
	RoleDirector      = "director"
	RolePrincipal     = "principal"
	RoleVicePrincipal = "vice_principal"
	RoleAccountant    = "accountant"
	RoleClerk         = "clerk"
	RoleManager       = "manager"
)

// Principal is the credential-bearing projection shared by all four
// classes. Identifier is the class-specific login handle: email for
// staff and teachers, student number for students, mobile for parents.
type Principal struct {
	ID           string    `db:"id"`
	TenantID     string    `db:"tenant_id"`
	Class        Class     `db:"class"`
	Identifier   string    `db:"identifier"`
	FullName     string    `db:"full_name"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (p *Principal) IsAdminStaff() bool {
	return p.Class == ClassAdminStaff
}
