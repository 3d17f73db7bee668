package models

import "time"

// CourseLevel categorises the difficulty of a course.
type CourseLevel string

// Supported course levels.
const (
	LevelAll          CourseLevel = "all_levels"
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelExpert       CourseLevel = "expert"
)

// ValidLevel reports whether the value is one of the supported levels.
func ValidLevel(level CourseLevel) bool {
	switch level {
	case LevelAll, LevelBeginner, LevelIntermediate, LevelExpert:
		return true
	}
	return false
}

// Course is a course offered by the center. Rating is a running average kept
// within [1,5]. InProgress gates archival; RegistrationOpen is flipped by
// notification decisions.
type Course struct {
	ID               string      `db:"id" json:"id"`
	Name             string      `db:"name" json:"name"`
	Bio              string      `db:"bio" json:"bio"`
	Description      string      `db:"description" json:"description"`
	Price            float64     `db:"price" json:"price"`
	InstructorID     string      `db:"instructor_id" json:"instructor_id"`
	RegistrationOpen bool        `db:"registration_open" json:"registration_open"`
	InProgress       bool        `db:"in_progress" json:"in_progress"`
	Level            CourseLevel `db:"level" json:"level"`
	Rating           float64     `db:"rating" json:"rating"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
}

// CourseDetail enriches Course with instructor, tags and enrolled students.
type CourseDetail struct {
	Course
	Instructor Teacher            `json:"instructor"`
	Tags       []Tag              `json:"tags"`
	Students   []EnrollmentDetail `json:"students"`
}

// CourseSummary is the compact catalog representation.
type CourseSummary struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Price          float64 `db:"price" json:"price"`
	Rating         float64 `db:"rating" json:"rating"`
	InstructorName string  `db:"instructor_name" json:"instructor_name"`
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	Search           string
	MaxPrice         float64
	Level            CourseLevel
	RegistrationOpen *bool
	InProgress       *bool
	Page             int
	PageSize         int
}

// Tag labels courses for filtering.
type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
