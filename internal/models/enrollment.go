package models

import "time"

// Enrollment binds a student to a course run with a payment flag. A student
// has at most one active enrollment per course; the enrollment flow enforces
// this, not a database constraint.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Paid      bool      `db:"paid" json:"paid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with the student identity.
type EnrollmentDetail struct {
	Enrollment
	Student StudentRef `json:"student"`
}

// CapacityPolicy names how the enrollment count is compared against the
// capacity ceiling when deciding whether to raise a notification. The two
// call sites intentionally differ and must stay distinct.
type CapacityPolicy int

const (
	// CapacityPolicyExact notifies only when the count equals the ceiling.
	// Used by the dashboard add-student path.
	CapacityPolicyExact CapacityPolicy = iota
	// CapacityPolicyAtLeast notifies whenever the count has reached or passed
	// the ceiling. Used by the mobile self-registration path.
	CapacityPolicyAtLeast
)

// Reached evaluates the policy for the given count and ceiling. A ceiling of
// zero means no classrooms exist and never triggers.
func (p CapacityPolicy) Reached(count, ceiling int) bool {
	if ceiling <= 0 {
		return false
	}
	if p == CapacityPolicyAtLeast {
		return count >= ceiling
	}
	return count == ceiling
}

// PaymentUpdate marks a single enrollment's payment state in a bulk edit.
type PaymentUpdate struct {
	EnrollmentID string `json:"id" validate:"required"`
	Paid         bool   `json:"paid"`
}
