package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GOG-777/course-registration-api/internal/models"
)

// Sentinel errors for ledger transitions. Services translate these into the
// API error taxonomy.
var (
	ErrAlreadyEnrolled = errors.New("already enrolled in course")
	ErrCreditLimit     = errors.New("credit limit exceeded")
)

const enrollmentColumns = `id, user_id, course_id, status, status_at, created_at`

// EnrollmentRepository handles persistence of the enrollment ledger.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByUserAndCourse returns the single ledger row for a pair, any status.
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE user_id = $1 AND course_id = $2 LIMIT 1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// SumEnrolledCredits totals credit weight over currently enrolled rows.
func (r *EnrollmentRepository) SumEnrolledCredits(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.user_id = $1 AND e.status = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, models.EnrollmentStatusEnrolled); err != nil {
		return 0, fmt.Errorf("sum enrolled credits: %w", err)
	}
	return total, nil
}

// Enroll performs the enroll transition for a (user, course) pair as one
// atomic unit. The pair's row is locked for the duration of the transaction
// and the unique index on (user_id, course_id) backstops concurrent inserts,
// so at most one enrolled row can ever result. An already-enrolled row wins
// over the credit cap: the cap is evaluated against the locked ledger only
// on the transitions that actually add credit weight.
func (r *EnrollmentRepository) Enroll(ctx context.Context, userID string, course *models.Course, maxCredits int) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var existing models.Enrollment
	lockQuery := fmt.Sprintf(`SELECT %s FROM enrollments WHERE user_id = $1 AND course_id = $2 FOR UPDATE`, enrollmentColumns)
	err = tx.GetContext(ctx, &existing, lockQuery, userID, course.ID)
	switch {
	case err == sql.ErrNoRows:
		if err := r.checkCreditCap(ctx, tx, userID, course.Credits, maxCredits); err != nil {
			return nil, err
		}
		enrollment := &models.Enrollment{
			ID:        uuid.NewString(),
			UserID:    userID,
			CourseID:  course.ID,
			Status:    models.EnrollmentStatusEnrolled,
			StatusAt:  now,
			CreatedAt: now,
		}
		const insertQuery = `INSERT INTO enrollments (id, user_id, course_id, status, status_at, created_at)
            VALUES (:id, :user_id, :course_id, :status, :status_at, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return nil, ErrAlreadyEnrolled
			}
			return nil, fmt.Errorf("insert enrollment: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit enroll tx: %w", err)
		}
		return enrollment, nil

	case err != nil:
		return nil, fmt.Errorf("lock enrollment row: %w", err)

	case existing.Status == models.EnrollmentStatusEnrolled:
		return nil, ErrAlreadyEnrolled

	default:
		// dropped -> enrolled reuses the same row.
		if err := r.checkCreditCap(ctx, tx, userID, course.Credits, maxCredits); err != nil {
			return nil, err
		}
		const updateQuery = `UPDATE enrollments SET status = $2, status_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, updateQuery, existing.ID, models.EnrollmentStatusEnrolled, now); err != nil {
			return nil, fmt.Errorf("re-enroll: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit enroll tx: %w", err)
		}
		existing.Status = models.EnrollmentStatusEnrolled
		existing.StatusAt = now
		return &existing, nil
	}
}

func (r *EnrollmentRepository) checkCreditCap(ctx context.Context, tx *sqlx.Tx, userID string, credits, maxCredits int) error {
	var current int
	const sumQuery = `SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.user_id = $1 AND e.status = $2`
	if err := tx.GetContext(ctx, &current, sumQuery, userID, models.EnrollmentStatusEnrolled); err != nil {
		return fmt.Errorf("sum enrolled credits: %w", err)
	}
	if current+credits > maxCredits {
		return ErrCreditLimit
	}
	return nil
}

// Drop marks the enrolled row for a pair as dropped, retaining the row.
// Returns sql.ErrNoRows when no enrolled row exists.
func (r *EnrollmentRepository) Drop(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`UPDATE enrollments SET status = $3, status_at = $4
        WHERE user_id = $1 AND course_id = $2 AND status = $5
        RETURNING %s`, enrollmentColumns)
	var enrollment models.Enrollment
	err := r.db.GetContext(ctx, &enrollment, query,
		userID, courseID, models.EnrollmentStatusDropped, time.Now().UTC(), models.EnrollmentStatusEnrolled)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByUser returns a user's enrollments joined with course data, any
// status, in catalog order.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.status, e.status_at, e.created_at,
        c.code AS course_code, c.title AS course_title, c.credits,
        c.level AS course_level, c.semester AS course_semester
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.user_id = $1
        ORDER BY c.level, c.semester, c.code`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return enrollments, nil
}

// ListLedger returns the full ledger joined with user and course data,
// most recent status change first.
func (r *EnrollmentRepository) ListLedger(ctx context.Context) ([]models.LedgerEntry, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.status, e.status_at, e.created_at,
        u.full_name AS student_name, u.email AS student_email, u.student_id AS student_no, u.level AS student_level,
        c.code AS course_code, c.title AS course_title, c.credits
        FROM enrollments e
        JOIN users u ON u.id = e.user_id
        JOIN courses c ON c.id = e.course_id
        ORDER BY e.status_at DESC`
	var entries []models.LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

// ListCourseStudents returns the enrolled roster for a course ordered by name.
func (r *EnrollmentRepository) ListCourseStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error) {
	const query = `SELECT e.id AS enrollment_id, u.id AS user_id, u.full_name, u.email,
        u.student_id AS student_no, u.phone, u.level, e.status_at
        FROM enrollments e
        JOIN users u ON u.id = e.user_id
        WHERE e.course_id = $1 AND e.status = $2
        ORDER BY u.full_name`
	var students []models.CourseStudent
	if err := r.db.SelectContext(ctx, &students, query, courseID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}
