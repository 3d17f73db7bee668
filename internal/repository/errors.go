package repository

import "errors"

// Sentinel errors surfaced by transactional flows so services can map them
// onto API errors without losing the all-or-nothing boundary.
var (
	ErrDuplicateEnrollment = errors.New("student already enrolled in course")
	ErrCourseNotInProgress = errors.New("course is not in progress")
	ErrUnknownEnrollment   = errors.New("unknown enrollment id")
)
