package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments []models.Enrollment
	credits     map[string]int
	titles      map[string]string
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "enr-" + enrollment.CourseCode
	}
	m.enrollments = append(m.enrollments, *enrollment)
	return nil
}

func (m *mockEnrollmentRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseCode string) (*models.Enrollment, error) {
	for i := range m.enrollments {
		if m.enrollments[i].StudentID == studentID && m.enrollments[i].CourseCode == courseCode {
			e := m.enrollments[i]
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, courseCode string) (bool, error) {
	_, err := m.FindByStudentAndCourse(ctx, studentID, courseCode)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (m *mockEnrollmentRepo) SemesterCredits(ctx context.Context, studentID string, semester models.Semester, year int) (int, error) {
	total := 0
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.Semester == semester && e.Year == year {
			total += m.credits[e.CourseCode]
		}
	}
	return total, nil
}

func (m *mockEnrollmentRepo) UpdateMarks(ctx context.Context, id string, marks float64, grade models.Grade) error {
	for i := range m.enrollments {
		if m.enrollments[i].ID == id {
			m.enrollments[i].Marks = &marks
			m.enrollments[i].Grade = &grade
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, studentID, courseCode string) error {
	kept := m.enrollments[:0]
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseCode == courseCode {
			continue
		}
		kept = append(kept, e)
	}
	m.enrollments = kept
	return nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var details []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.StudentID != studentID {
			continue
		}
		details = append(details, models.EnrollmentDetail{
			Enrollment:  e,
			CourseTitle: m.titles[e.CourseCode],
			Credits:     m.credits[e.CourseCode],
		})
	}
	return details, nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	if c, ok := m.courses[code]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentFixture() (*mockEnrollmentRepo, *EnrollmentService) {
	repo := &mockEnrollmentRepo{
		credits: map[string]int{"CS101": 3, "MA101": 4, "PH500": 20},
		titles:  map[string]string{"CS101": "Programming", "MA101": "Calculus", "PH500": "Thesis"},
	}
	students := &mockStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", Active: true},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"CS101": {Code: "CS101", Title: "Programming", Credits: 3, Semester: models.SemesterFall, Active: true},
		"MA101": {Code: "MA101", Title: "Calculus", Credits: 4, Semester: models.SemesterFall, Active: true},
		"PH500": {Code: "PH500", Title: "Thesis", Credits: 20, Semester: models.SemesterFall, Active: true},
	}}
	svc := NewEnrollmentService(repo, students, courses, nil, 24, validator.New(), zap.NewNop())
	return repo, svc
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo, svc := newEnrollmentFixture()

	first, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "CS101", first.CourseCode)
	assert.Equal(t, models.SemesterFall, first.Semester)

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "ma101", Semester: "fall", Year: 2024})
	require.NoError(t, err)
	assert.Len(t, repo.enrollments, 2)
	assert.Equal(t, "MA101", repo.enrollments[1].CourseCode)
}

func TestEnrollmentServiceCreditLimit(t *testing.T) {
	repo, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "MA101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "PH500", Semester: "FALL", Year: 2024})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCreditLimitExceeded))

	// the failed attempt leaves no partial state behind
	assert.Len(t, repo.enrollments, 2)
}

func TestEnrollmentServiceDuplicateAcrossSemesters(t *testing.T) {
	_, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)

	// uniqueness is keyed on (student, course): a different semester and
	// year does not open a second seat
	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "SPRING", Year: 2025})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateEnrollment))
}

func TestEnrollmentServiceUnenrollThenReenroll(t *testing.T) {
	repo, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)

	require.NoError(t, svc.Unenroll(context.Background(), "s1", "CS101"))
	assert.Empty(t, repo.enrollments)

	// removing again is a no-op
	require.NoError(t, svc.Unenroll(context.Background(), "s1", "CS101"))

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)
	assert.Len(t, repo.enrollments, 1)
}

func TestEnrollmentServiceEnrollUnknownStudentOrCourse(t *testing.T) {
	_, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "ghost", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "XX999", Semester: "FALL", Year: 2024})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestEnrollmentServiceRecordGrade(t *testing.T) {
	repo, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)

	enrollment, err := svc.RecordGrade(context.Background(), "s1", RecordGradeRequest{CourseCode: "cs101", Marks: 85})
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, models.GradeA, *enrollment.Grade)
	assert.Equal(t, 85.0, *repo.enrollments[0].Marks)

	// re-recording overwrites the previous marks
	enrollment, err = svc.RecordGrade(context.Background(), "s1", RecordGradeRequest{CourseCode: "CS101", Marks: 42})
	require.NoError(t, err)
	assert.Equal(t, models.GradeE, *enrollment.Grade)
}

func TestEnrollmentServiceRecordGradeSilentSkip(t *testing.T) {
	_, svc := newEnrollmentFixture()

	// unknown student: nothing recorded, no error
	enrollment, err := svc.RecordGrade(context.Background(), "ghost", RecordGradeRequest{CourseCode: "CS101", Marks: 80})
	require.NoError(t, err)
	assert.Nil(t, enrollment)

	// known student without a matching enrollment: same outcome
	enrollment, err = svc.RecordGrade(context.Background(), "s1", RecordGradeRequest{CourseCode: "CS101", Marks: 80})
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}

func TestEnrollmentServiceRecordGradeOutOfRangeMarks(t *testing.T) {
	_, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.NoError(t, err)

	// marks are not range-checked: they map through the grade scale as-is
	enrollment, err := svc.RecordGrade(context.Background(), "s1", RecordGradeRequest{CourseCode: "CS101", Marks: 150})
	require.NoError(t, err)
	assert.Equal(t, models.GradeS, *enrollment.Grade)

	enrollment, err = svc.RecordGrade(context.Background(), "s1", RecordGradeRequest{CourseCode: "CS101", Marks: -10})
	require.NoError(t, err)
	assert.Equal(t, models.GradeF, *enrollment.Grade)
}

func TestEnrollmentServiceEnrollValidation(t *testing.T) {
	_, svc := newEnrollmentFixture()

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", CourseCode: "CS101", Semester: "WINTER", Year: 2024})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Enroll(context.Background(), EnrollRequest{CourseCode: "CS101", Semester: "FALL", Year: 2024})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
