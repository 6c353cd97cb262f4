package models

import "time"

// Semesters recognised by the catalog.
const (
	SemesterFirst  = 1
	SemesterSecond = 2
)

// ValidSemester reports whether s is a recognised semester tag.
func ValidSemester(s int) bool {
	return s == SemesterFirst || s == SemesterSecond
}

// Course represents a catalog offering stored in the courses table.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	Credits   int       `db:"credits" json:"credits"`
	Level     int       `db:"level" json:"level"`
	Semester  int       `db:"semester" json:"semester"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the current enrolled head count.
type CourseDetail struct {
	Course
	EnrolledStudents int `db:"enrolled_students" json:"enrolled_students"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Level    int
	Semester int
}
