package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GOG-777/course-registration-api/internal/models"
	appErrors "github.com/GOG-777/course-registration-api/pkg/errors"
)

type mockResultCourses struct {
	courses      []models.Course
	err          error
	lastLevel    int
	lastSemester int
}

func (m *mockResultCourses) ListForResult(ctx context.Context, level, semester int) ([]models.Course, error) {
	m.lastLevel = level
	m.lastSemester = semester
	if m.err != nil {
		return nil, m.err
	}
	return m.courses, nil
}

type mockScoreStore struct {
	sheets  map[string]models.ScoreSheet
	getErr  error
	setErr  error
	delErr  error
	lastTTL time.Duration
}

func (m *mockScoreStore) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	sheet, ok := m.sheets[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.ScoreSheet) = sheet
	return nil
}

func (m *mockScoreStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.sheets == nil {
		m.sheets = make(map[string]models.ScoreSheet)
	}
	m.sheets[key] = value.(models.ScoreSheet)
	m.lastTTL = ttl
	return nil
}

func (m *mockScoreStore) Delete(ctx context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.sheets, key)
	return nil
}

func TestResultServiceComputeWeightedAverage(t *testing.T) {
	courses := &mockResultCourses{courses: []models.Course{
		{ID: "c1", Code: "CSC101", Title: "Intro to Computing", Credits: 3, Level: 100, Semester: 1},
		{ID: "c2", Code: "CSC102", Title: "Programming I", Credits: 2, Level: 100, Semester: 1},
	}}
	svc := NewResultService(courses, &mockScoreStore{}, 0, nil, nil)

	summary, err := svc.Compute(context.Background(), ComputeResultRequest{
		Level: 100,
		Mode:  models.ResultModeSemester1,
		Scores: models.ScoreSheet{
			"100-CSC101": 72,
			"100-CSC102": 55,
		},
	})
	require.NoError(t, err)

	// 72 -> A/5 on 3 credits, 55 -> C/3 on 2 credits.
	assert.Equal(t, 5, summary.TotalCredits)
	assert.Equal(t, 21, summary.TotalQualityPoints)
	assert.InDelta(t, 4.2, summary.FinalResult, 0.0001)
	require.Len(t, summary.Courses, 2)
	assert.Equal(t, "A", summary.Courses[0].Grade)
	assert.Equal(t, "C", summary.Courses[1].Grade)
	assert.Equal(t, models.SemesterFirst, courses.lastSemester)
}

func TestResultServiceComputeModeSelectsSemester(t *testing.T) {
	courses := &mockResultCourses{}
	svc := NewResultService(courses, &mockScoreStore{}, 0, nil, nil)

	_, err := svc.Compute(context.Background(), ComputeResultRequest{Level: 200, Mode: models.ResultModeSemester2})
	require.NoError(t, err)
	assert.Equal(t, 200, courses.lastLevel)
	assert.Equal(t, models.SemesterSecond, courses.lastSemester)

	_, err = svc.Compute(context.Background(), ComputeResultRequest{Level: 200, Mode: models.ResultModeCGPA})
	require.NoError(t, err)
	assert.Equal(t, 0, courses.lastSemester)
}

func TestResultServiceComputeEmptyScores(t *testing.T) {
	courses := &mockResultCourses{courses: []models.Course{
		{ID: "c1", Code: "GES 100.1", Credits: 2, Level: 100, Semester: 1},
	}}
	svc := NewResultService(courses, &mockScoreStore{}, 0, nil, nil)

	summary, err := svc.Compute(context.Background(), ComputeResultRequest{Level: 100, Mode: models.ResultModeSemester1})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalCredits)
	assert.Equal(t, 0, summary.TotalQualityPoints)
	assert.Zero(t, summary.FinalResult)
	assert.Empty(t, summary.Courses)
}

func TestResultServiceComputeSkipsUnscoredCourses(t *testing.T) {
	courses := &mockResultCourses{courses: []models.Course{
		{ID: "c1", Code: "MTH101", Credits: 3, Level: 100, Semester: 1},
		{ID: "c2", Code: "PHY101", Credits: 4, Level: 100, Semester: 1},
	}}
	svc := NewResultService(courses, &mockScoreStore{}, 0, nil, nil)

	summary, err := svc.Compute(context.Background(), ComputeResultRequest{
		Level:  100,
		Mode:   models.ResultModeSemester1,
		Scores: models.ScoreSheet{"100-MTH101": 65},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCredits)
	assert.Equal(t, 12, summary.TotalQualityPoints)
	require.Len(t, summary.Courses, 1)
	assert.Equal(t, "MTH101", summary.Courses[0].CourseCode)
}

func TestResultServiceComputeRejectsOutOfRangeScores(t *testing.T) {
	courses := &mockResultCourses{courses: []models.Course{
		{ID: "c1", Code: "CSC101", Credits: 3, Level: 100, Semester: 1},
		{ID: "c2", Code: "BIO101", Credits: 2, Level: 100, Semester: 1},
		{ID: "c3", Code: "CHM101", Credits: 2, Level: 100, Semester: 1},
	}}
	svc := NewResultService(courses, &mockScoreStore{}, 0, nil, nil)

	_, err := svc.Compute(context.Background(), ComputeResultRequest{
		Level: 100,
		Mode:  models.ResultModeSemester1,
		Scores: models.ScoreSheet{
			"100-CSC101": 101,
			"100-BIO101": -1,
			"100-CHM101": 80,
		},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidScores.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "BIO101, CSC101")
	assert.NotContains(t, appErr.Message, "CHM101")
}

func TestResultServiceComputeValidation(t *testing.T) {
	svc := NewResultService(&mockResultCourses{}, &mockScoreStore{}, 0, nil, nil)

	_, err := svc.Compute(context.Background(), ComputeResultRequest{Level: 150, Mode: models.ResultModeCGPA})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Compute(context.Background(), ComputeResultRequest{Level: 100, Mode: "annual"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestResultServiceScoreSheetRoundTrip(t *testing.T) {
	store := &mockScoreStore{}
	svc := NewResultService(&mockResultCourses{}, store, time.Hour, nil, nil)
	ctx := context.Background()

	sheet, err := svc.LoadScores(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sheet)

	require.NoError(t, svc.SaveScores(ctx, "u1", models.ScoreSheet{"100-CSC101": 88}))
	assert.Equal(t, time.Hour, store.lastTTL)

	sheet, err = svc.LoadScores(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 88, sheet["100-CSC101"])

	require.NoError(t, svc.ClearScores(ctx, "u1"))
	sheet, err = svc.LoadScores(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sheet)
}

func TestResultServiceSaveScoresRejectsMalformedKeys(t *testing.T) {
	store := &mockScoreStore{}
	svc := NewResultService(&mockResultCourses{}, store, 0, nil, nil)
	ctx := context.Background()

	for _, key := range []string{"CSC101", "999-CSC101", "100-", "x-CSC101"} {
		err := svc.SaveScores(ctx, "u1", models.ScoreSheet{key: 70})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr, "key %q", key)
		assert.Equal(t, appErrors.ErrInvalidScores.Code, appErr.Code, "key %q", key)
	}
	assert.Empty(t, store.sheets)

	// Codes with spaces and dots are fine; only the level prefix is parsed.
	require.NoError(t, svc.SaveScores(ctx, "u1", models.ScoreSheet{"100-GES 100.1": 70}))
}

func TestResultServiceSaveScoresRejectsInvalidEntries(t *testing.T) {
	store := &mockScoreStore{}
	svc := NewResultService(&mockResultCourses{}, store, 0, nil, nil)

	err := svc.SaveScores(context.Background(), "u1", models.ScoreSheet{
		"100-CSC101": 105,
		"100-BIO101": 60,
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidScores.Code, appErr.Code)
	assert.Empty(t, store.sheets)
}
