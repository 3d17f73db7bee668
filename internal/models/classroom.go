package models

// Classroom is a physical room with a fixed seating capacity. The maximum
// capacity across all classrooms is the system-wide enrollment ceiling.
type Classroom struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
}
