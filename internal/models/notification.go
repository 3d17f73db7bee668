package models

import "time"

// Notification records a capacity event for a course. Notifications are an
// append-only log: resolving one never deletes or marks it, so the same
// notification may be resolved again with a different decision.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Decision messages returned by notification resolution.
const (
	RegistrationClosedMessage    = "registration closed"
	RegistrationStillOpenMessage = "registration still open"
)
