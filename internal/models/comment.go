package models

import "time"

// Comment is student feedback on a course with a 1-5 rating.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Comment   string    `db:"comment" json:"comment"`
	Rating    float64   `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CommentDetail enriches Comment with the author.
type CommentDetail struct {
	Comment
	Student StudentRef `json:"student"`
}

// RatingBreakdown reports per-star percentages plus the recomputed average
// for a course's comments.
type RatingBreakdown struct {
	One         string  `json:"one"`
	Two         string  `json:"two"`
	Three       string  `json:"three"`
	Four        string  `json:"four"`
	Five        string  `json:"five"`
	TotalRating float64 `json:"total_rating"`
}
