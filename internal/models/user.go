package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

// Roles understood by the dashboard and mobile surfaces.
const (
	RoleStudent    UserRole = "STUDENT"
	RoleStaff      UserRole = "STAFF"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// User is an account in the system. Students enroll into courses; staff and
// super admins operate the dashboard.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StudentRef is the compact student representation embedded in enrollment and
// archive payloads.
type StudentRef struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// Pagination describes list paging metadata in the response envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
