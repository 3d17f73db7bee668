package models

import "time"

// Archive is an immutable snapshot of a finished course run: the paid
// enrollment at archival time and the revenue it represents. CourseVersion
// counts prior archives for the course plus one.
type Archive struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	CourseVersion int       `db:"course_version" json:"course_version"`
	CoursePrice   float64   `db:"course_price" json:"course_price"`
	TotalStudents int       `db:"total_students" json:"total_students"`
	TotalEarnings float64   `db:"total_earnings" json:"total_earnings"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ArchiveDetail includes the archived student references.
type ArchiveDetail struct {
	Archive
	Students []StudentRef `json:"students"`
}
