// AngelaMos | 2026
// dto.go

package student

type CreateRequest struct {
	StudentNumber  string `json:"student_number" validate:"required,min=1,max=50"`
	FullName       string `json:"full_name" validate:"required,min=2,max=200"`
	ClassName      string `json:"class_name" validate:"required,max=50"`
	Section        string `json:"section" validate:"max=10"`
	GuardianName   string `json:"guardian_name" validate:"max=200"`
	GuardianMobile string `json:"guardian_mobile" validate:"max=20"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
}

// UpdateRequest may echo the record's tenant_id; a foreign value is a
// violation, not a retarget.
type UpdateRequest struct {
	TenantID       string `json:"tenant_id" validate:"omitempty,uuid"`
	FullName       string `json:"full_name" validate:"required,min=2,max=200"`
	ClassName      string `json:"class_name" validate:"required,max=50"`
	Section        string `json:"section" validate:"max=10"`
	GuardianName   string `json:"guardian_name" validate:"max=200"`
	GuardianMobile string `json:"guardian_mobile" validate:"max=20"`
}
