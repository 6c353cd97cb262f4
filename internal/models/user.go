package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// Academic levels a student account may carry. The level is fixed at
// registration time.
var AcademicLevels = []int{100, 200, 300, 400}

// ValidLevel reports whether l is a recognised academic level.
func ValidLevel(l int) bool {
	for _, level := range AcademicLevels {
		if l == level {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	Level        int       `db:"level" json:"level"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
