package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GOG-777/course-registration-api/internal/models"
)

// ErrDuplicateCourseCode is returned when an insert collides with an
// existing course code.
var ErrDuplicateCourseCode = fmt.Errorf("duplicate course code")

// CourseRepository handles persistence of catalog offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns catalog entries with enrolled head counts, optionally
// filtered by level and semester. Ordering follows the catalog convention:
// level, then semester, then code.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	base := `SELECT c.id, c.code, c.title, c.credits, c.level, c.semester, c.created_at, c.updated_at,
        COUNT(e.id) FILTER (WHERE e.status = 'enrolled') AS enrolled_students
        FROM courses c
        LEFT JOIN enrollments e ON e.course_id = c.id`
	var conditions []string
	var args []interface{}

	if filter.Level != 0 {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Semester != 0 {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}

	query := base
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY c.id ORDER BY c.level, c.semester, c.code"

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course with its enrolled head count.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.code, c.title, c.credits, c.level, c.semester, c.created_at, c.updated_at,
        COUNT(e.id) FILTER (WHERE e.status = 'enrolled') AS enrolled_students
        FROM courses c
        LEFT JOIN enrollments e ON e.course_id = c.id
        WHERE c.id = $1
        GROUP BY c.id`
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks uniqueness of a course code.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE code = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create persists a new course. The unique index on code surfaces
// collisions as ErrDuplicateCourseCode.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, title, credits, level, semester, created_at, updated_at)
        VALUES (:id, :code, :title, :credits, :level, :semester, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrDuplicateCourseCode
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update applies a partial update, keeping existing values for nil fields.
func (r *CourseRepository) Update(ctx context.Context, id string, title *string, credits, level, semester *int) (*models.Course, error) {
	const query = `UPDATE courses SET
        title = COALESCE($2, title),
        credits = COALESCE($3, credits),
        level = COALESCE($4, level),
        semester = COALESCE($5, semester),
        updated_at = $6
        WHERE id = $1
        RETURNING id, code, title, credits, level, semester, created_at, updated_at`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id, title, credits, level, semester, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete removes a course from the catalog.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForResult returns the course set a GPA computation covers. Semester 0
// selects both semesters (the CGPA union).
func (r *CourseRepository) ListForResult(ctx context.Context, level, semester int) ([]models.Course, error) {
	query := `SELECT id, code, title, credits, level, semester, created_at, updated_at
        FROM courses WHERE level = $1`
	args := []interface{}{level}
	if semester != 0 {
		query += fmt.Sprintf(" AND semester = $%d", len(args)+1)
		args = append(args, semester)
	}
	query += " ORDER BY semester, code"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses for result: %w", err)
	}
	return courses, nil
}
