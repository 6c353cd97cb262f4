package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GOG-777/course-registration-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentRows(id string, status models.EnrollmentStatus, statusAt, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "status_at", "created_at"}).
		AddRow(id, "u1", "c1", string(status), statusAt, createdAt)
}

func TestEnrollmentRepositoryEnrollInsertsNewRow(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	course := &models.Course{ID: "c1", Code: "CSC101", Credits: 3}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, course_id, status, status_at, created_at FROM enrollments WHERE user_id = .* FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "u1", "c1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, enrollment.CreatedAt, enrollment.StatusAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollCreditLimit(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	course := &models.Course{ID: "c1", Credits: 3}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(22))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	assert.ErrorIs(t, err, ErrCreditLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollExactlyAtCap(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	course := &models.Course{ID: "c1", Credits: 3}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(21))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollReusesDroppedRow(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	course := &models.Course{ID: "c1", Credits: 3}
	createdAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnRows(enrollmentRows("e1", models.EnrollmentStatusDropped, createdAt, createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectExec("UPDATE enrollments SET status").
		WithArgs("e1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	require.NoError(t, err)
	assert.Equal(t, "e1", enrollment.ID, "dropped row must be reused, not replaced")
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.True(t, enrollment.StatusAt.After(enrollment.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollAlreadyEnrolled(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	course := &models.Course{ID: "c1", Credits: 3}
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnRows(enrollmentRows("e1", models.EnrollmentStatusEnrolled, now, now))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicateWhileAtCap(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	// The enrolled sum already counts this course, so a duplicate enroll at
	// the cap must still surface as already-enrolled, never as a cap breach.
	// The credit sum is not even consulted for an enrolled row.
	course := &models.Course{ID: "c1", Credits: 3}
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnRows(enrollmentRows("e1", models.EnrollmentStatusEnrolled, now, now))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	assert.NotErrorIs(t, err, ErrCreditLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReenrollOverCap(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	course := &models.Course{ID: "c1", Credits: 3}
	createdAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("u1", "c1").
		WillReturnRows(enrollmentRows("e1", models.EnrollmentStatusDropped, createdAt, createdAt))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(22))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), "u1", course, models.MaxCredits)
	assert.ErrorIs(t, err, ErrCreditLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDrop(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE enrollments SET status").
		WithArgs("u1", "c1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(enrollmentRows("e1", models.EnrollmentStatusDropped, now, now.Add(-time.Hour)))

	enrollment, err := repo.Drop(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusDropped, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDropNotEnrolled(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("UPDATE enrollments SET status").
		WithArgs("u1", "c1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Drop(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySumEnrolledCredits(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(13))

	total, err := repo.SumEnrolledCredits(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 13, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListLedger(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "course_id", "status", "status_at", "created_at",
		"student_name", "student_email", "student_no", "student_level",
		"course_code", "course_title", "credits",
	}).AddRow("e1", "u1", "c1", "enrolled", now, now, "Ada Obi", "ada@example.com", "CSC/21/001", 100, "CSC101", "Intro to Computing", 3)

	mock.ExpectQuery("ORDER BY e.status_at DESC").WillReturnRows(rows)

	entries, err := repo.ListLedger(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ada Obi", entries[0].StudentName)
	assert.Equal(t, "CSC101", entries[0].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
