// AngelaMos | 2026
// entity.go

package student

import "time"

// Student is the roster record. It doubles as the STUDENT principal row,
// so it carries the credential hash alongside roster fields.
type Student struct {
	ID             string    `db:"id" json:"id"`
	TenantID       string    `db:"tenant_id" json:"tenant_id"`
	StudentNumber  string    `db:"student_number" json:"student_number"`
	FullName       string    `db:"full_name" json:"full_name"`
	ClassName      string    `db:"class_name" json:"class_name"`
	Section        string    `db:"section" json:"section"`
	GuardianName   string    `db:"guardian_name" json:"guardian_name"`
	GuardianMobile string    `db:"guardian_mobile" json:"guardian_mobile"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

func (s Student) TenantTag() string { return s.TenantID }
