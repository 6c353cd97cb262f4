package models

import "time"

// EnrollmentStatus represents the lifecycle of a ledger row.
type EnrollmentStatus string

// Possible enrollment statuses. A (user, course) pair keeps a single row and
// cycles between the two statuses; dropped rows are never deleted.
const (
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped  EnrollmentStatus = "dropped"
)

// MaxCredits is the cap on a student's concurrently enrolled credit weight.
const MaxCredits = 24

// Enrollment captures a user's registration to a course.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	StatusAt  time.Time        `db:"status_at" json:"status_at"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with course info for student views.
type EnrollmentDetail struct {
	Enrollment
	CourseCode     string `db:"course_code" json:"course_code"`
	CourseTitle    string `db:"course_title" json:"course_title"`
	Credits        int    `db:"credits" json:"credits"`
	CourseLevel    int    `db:"course_level" json:"course_level"`
	CourseSemester int    `db:"course_semester" json:"course_semester"`
}

// LedgerEntry is the admin view of an enrollment joined with user and course.
type LedgerEntry struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
	StudentNo    string `db:"student_no" json:"student_no"`
	StudentLevel int    `db:"student_level" json:"student_level"`
	CourseCode   string `db:"course_code" json:"course_code"`
	CourseTitle  string `db:"course_title" json:"course_title"`
	Credits      int    `db:"credits" json:"credits"`
}

// CourseStudent is a roster row for the per-course admin view.
type CourseStudent struct {
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	StudentNo    string    `db:"student_no" json:"student_no"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Level        int       `db:"level" json:"level"`
	StatusAt     time.Time `db:"status_at" json:"status_at"`
}
