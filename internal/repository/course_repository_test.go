package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GOG-777/course-registration-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseDetailRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "code", "title", "credits", "level", "semester", "created_at", "updated_at", "enrolled_students"}).
		AddRow("c1", "CSC101", "Intro to Computing", 3, 100, 1, now, now, 12)
}

func TestCourseRepositoryListUnfiltered(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("GROUP BY c.id ORDER BY c.level, c.semester, c.code").
		WillReturnRows(courseDetailRows())

	courses, err := repo.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CSC101", courses[0].Code)
	assert.Equal(t, 12, courses[0].EnrolledStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.level = $1 AND c.semester = $2")).
		WithArgs(100, 2).
		WillReturnRows(courseDetailRows())

	_, err := repo.List(context.Background(), models.CourseFilter{Level: 100, Semester: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("WHERE c.id =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseRepositoryCreateDuplicateCode(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Course{Code: "CSC101", Title: "Intro", Credits: 3, Level: 100, Semester: 1})
	assert.ErrorIs(t, err, ErrDuplicateCourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "title", "credits", "level", "semester", "created_at", "updated_at"}).
		AddRow("c1", "CSC101", "Renamed", 3, 100, 1, now, now)
	mock.ExpectQuery("UPDATE courses SET").
		WithArgs("c1", "Renamed", nil, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(rows)

	title := "Renamed"
	course, err := repo.Update(context.Background(), "c1", &title, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", course.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM courses").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListForResult(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "code", "title", "credits", "level", "semester", "created_at", "updated_at"}).
		AddRow("c1", "CSC101", "Intro", 3, 100, 1, now, now).
		AddRow("c2", "CSC202", "Data Structures", 3, 100, 2, now, now)

	// Semester 0 covers both semesters, no semester clause.
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE level = $1 ORDER BY semester, code")).
		WithArgs(100).
		WillReturnRows(rows)

	courses, err := repo.ListForResult(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	mock.ExpectQuery(regexp.QuoteMeta("AND semester = $2")).
		WithArgs(100, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "title", "credits", "level", "semester", "created_at", "updated_at"}).
			AddRow("c1", "CSC101", "Intro", 3, 100, 1, now, now))

	courses, err = repo.ListForResult(context.Background(), 100, 1)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
