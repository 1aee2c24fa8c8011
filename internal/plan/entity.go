// AngelaMos | 2026
// entity.go

package plan

// Capability is a named permission from the closed set below. Route gates
// check membership in the tenant's entitlement set.
type Capability string

const (
	CapCoreRead      Capability = "CORE_READ"
	CapStaffManage   Capability = "STAFF_MANAGE"
	CapStudentManage Capability = "STUDENT_MANAGE"
	CapClassManage   Capability = "CLASS_MANAGE"
	CapAttendance    Capability = "ATTENDANCE"
	CapFeeManage     Capability = "FEE_MANAGE"
	CapTimetable     Capability = "TIMETABLE"
	CapExamManage    Capability = "EXAM_MANAGE"
	CapNotice        Capability = "NOTICE"
	CapAIContent     Capability = "AI_CONTENT"
	CapAIPaper       Capability = "AI_PAPER"
	CapAIVoice       Capability = "AI_VOICE"
	CapBiometric     Capability = "BIOMETRIC"
	CapCCTV          Capability = "CCTV"
	CapTransportGPS  Capability = "TRANSPORT_GPS"
	CapMessaging     Capability = "MESSAGING"
	CapGallery       Capability = "GALLERY"
	CapVisitor       Capability = "VISITOR"
	CapHealth        Capability = "HEALTH"
	CapIDCard        Capability = "ID_CARD"
)

// AICapabilities are the entitlements that require a configured LLM or
// speech provider. They are dropped from a request's effective set when
// the providers are absent.
var AICapabilities = []Capability{CapAIContent, CapAIPaper, CapAIVoice}

type Plan string

const (
	PlanTrial         Plan = "TRIAL"
	PlanBasic         Plan = "BASIC"
	PlanAIPowered     Plan = "AI_POWERED"
	PlanCCTVBiometric Plan = "CCTV_BIOMETRIC"
	PlanGPSTracking   Plan = "GPS_TRACKING"
	PlanAITeacher     Plan = "AI_TEACHER"
)

func (p Plan) Valid() bool {
	_, ok := definitions[p]
	return ok
}

// Status is the subscription state the registry folds into entitlement
// derivation. GRACE keeps the plan's entitlements; EXPIRED and CANCELLED
// collapse to read-only.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusGrace     Status = "GRACE"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Resource names a metered quota bucket. Counters are keyed per tenant,
// per resource, per period: calendar month for AI queries, a single
// lifetime bucket for the student count.
type Resource string

const (
	ResourceStudent Resource = "STUDENT"
	ResourceAIQuery Resource = "AI_QUERY"
)

// Quotas is the quantitative bundle attached to a plan. A zero cap means
// the resource is not available on the plan.
type Quotas struct {
	StudentCap int `json:"student_cap"`
	AIQueryCap int `json:"ai_query_cap"`
}

func (q Quotas) Cap(resource Resource) int {
	switch resource {
	case ResourceStudent:
		return q.StudentCap
	case ResourceAIQuery:
		return q.AIQueryCap
	}
	return 0
}

// Definition is the fixed commercial shape of a plan. The catalog is
// static; pricing changes ship as code.
type Definition struct {
	Plan         Plan         `json:"plan"`
	Entitlements []Capability `json:"entitlements"`
	Quotas       Quotas       `json:"quotas"`
	MonthlyPrice int          `json:"monthly_price"`
}

var basicSet = []Capability{
	CapCoreRead, CapStaffManage, CapStudentManage, CapClassManage,
	CapAttendance, CapFeeManage, CapTimetable, CapExamManage,
	CapNotice, CapMessaging, CapGallery, CapVisitor,
	CapHealth, CapIDCard,
}

var allSet = []Capability{
	CapCoreRead, CapStaffManage, CapStudentManage, CapClassManage,
	CapAttendance, CapFeeManage, CapTimetable, CapExamManage,
	CapNotice, CapAIContent, CapAIPaper, CapAIVoice,
	CapBiometric, CapCCTV, CapTransportGPS, CapMessaging,
	CapGallery, CapVisitor, CapHealth, CapIDCard,
}

// The ladder is cumulative: each paid tier extends the one below it.
// TRIAL carries every capability bounded by small quotas.
var definitions = map[Plan]Definition{
	PlanTrial: {
		Plan:         PlanTrial,
		Entitlements: allSet,
		Quotas:       Quotas{StudentCap: 50, AIQueryCap: 50},
		MonthlyPrice: 0,
	},
	PlanBasic: {
		Plan:         PlanBasic,
		Entitlements: basicSet,
		Quotas:       Quotas{StudentCap: 500, AIQueryCap: 0},
		MonthlyPrice: 4999,
	},
	PlanAIPowered: {
		Plan:         PlanAIPowered,
		Entitlements: append(append([]Capability{}, basicSet...), CapAIContent, CapAIPaper),
		Quotas:       Quotas{StudentCap: 1000, AIQueryCap: 1000},
		MonthlyPrice: 7999,
	},
	PlanCCTVBiometric: {
		Plan: PlanCCTVBiometric,
		Entitlements: append(
			append([]Capability{}, basicSet...),
			CapAIContent, CapAIPaper, CapBiometric, CapCCTV,
		),
		Quotas:       Quotas{StudentCap: 1500, AIQueryCap: 1000},
		MonthlyPrice: 9999,
	},
	PlanGPSTracking: {
		Plan: PlanGPSTracking,
		Entitlements: append(
			append([]Capability{}, basicSet...),
			CapAIContent, CapAIPaper, CapBiometric, CapCCTV, CapTransportGPS,
		),
		Quotas:       Quotas{StudentCap: 2000, AIQueryCap: 1000},
		MonthlyPrice: 11999,
	},
	PlanAITeacher: {
		Plan:         PlanAITeacher,
		Entitlements: allSet,
		Quotas:       Quotas{StudentCap: 5000, AIQueryCap: 5000},
		MonthlyPrice: 14999,
	},
}

// Catalog returns the plan definitions in ascending price order.
func Catalog() []Definition {
	return []Definition{
		definitions[PlanTrial],
		definitions[PlanBasic],
		definitions[PlanAIPowered],
		definitions[PlanCCTVBiometric],
		definitions[PlanGPSTracking],
		definitions[PlanAITeacher],
	}
}

func Lookup(p Plan) (Definition, bool) {
	def, ok := definitions[p]
	return def, ok
}

// Set is an entitlement set.
type Set map[Capability]struct{}

func (s Set) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func (s Set) Without(caps ...Capability) Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	for _, c := range caps {
		delete(out, c)
	}
	return out
}

// Entitlements derives the effective capability set from plan and status.
// It is a pure function: GRACE keeps the plan's set, EXPIRED and CANCELLED
// collapse to CORE_READ only.
func Entitlements(p Plan, status Status) Set {
	switch status {
	case StatusExpired, StatusCancelled:
		return Set{CapCoreRead: {}}
	}

	def, ok := definitions[p]
	if !ok {
		return Set{CapCoreRead: {}}
	}

	set := make(Set, len(def.Entitlements))
	for _, c := range def.Entitlements {
		set[c] = struct{}{}
	}
	return set
}
