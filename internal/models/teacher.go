package models

import "time"

// Teacher is a course instructor.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Bio       string    `db:"bio" json:"bio"`
	About     string    `db:"about" json:"about"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
