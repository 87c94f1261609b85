package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
	"github.com/noah-isme/campus-records-api/pkg/storage"
)

type mockCatalogStudents struct {
	students []models.Student
	created  []models.Student
}

func (m *mockCatalogStudents) ListAll(ctx context.Context) ([]models.Student, error) {
	return m.students, nil
}

func (m *mockCatalogStudents) Create(ctx context.Context, student *models.Student) error {
	m.created = append(m.created, *student)
	return nil
}

type mockCatalogCourses struct {
	courses []models.Course
	created []models.Course
}

func (m *mockCatalogCourses) ListAll(ctx context.Context) ([]models.Course, error) {
	return m.courses, nil
}

func (m *mockCatalogCourses) Create(ctx context.Context, course *models.Course) error {
	m.created = append(m.created, *course)
	return nil
}

type mockTranscriptBuilder struct {
	transcript *models.Transcript
}

func (m *mockTranscriptBuilder) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	if m.transcript == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return m.transcript, nil
}

func newExportFixture(t *testing.T) (*mockCatalogStudents, *mockCatalogCourses, *ExportService) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	students := &mockCatalogStudents{students: []models.Student{
		{ID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", Email: "asha@example.edu", Active: true, CreatedAt: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)},
	}}
	courses := &mockCatalogCourses{courses: []models.Course{
		{Code: "CS101", Title: "Programming", Credits: 3, Semester: models.SemesterFall, Department: "CS", Active: true},
	}}
	marks := 85.0
	grade := models.GradeA
	lister := &mockEnrollmentLister{details: map[string][]models.EnrollmentDetail{
		"s1": {{
			Enrollment:  models.Enrollment{StudentID: "s1", CourseCode: "CS101", Marks: &marks, Grade: &grade},
			CourseTitle: "Programming",
			Credits:     3,
		}},
	}}
	transcripts := &mockTranscriptBuilder{transcript: &models.Transcript{
		StudentID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", GPA: 9.0,
	}}

	svc := NewExportService(students, courses, lister, transcripts, store, nil, nil, zap.NewNop())
	return students, courses, svc
}

func TestExportServiceStudentsRoundTrip(t *testing.T) {
	students, _, svc := newExportFixture(t)

	name, err := svc.ExportStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "students.csv", name)

	result, err := svc.ImportStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, students.created, 1)
	assert.Equal(t, "2024CS001", students.created[0].RegNo)
}

func TestExportServiceCoursesRoundTrip(t *testing.T) {
	_, courses, svc := newExportFixture(t)

	name, err := svc.ExportCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "courses.csv", name)

	result, err := svc.ImportCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, courses.created, 1)
	assert.Equal(t, "CS101", courses.created[0].Code)
	assert.Equal(t, 3, courses.created[0].Credits)
}

func TestExportServiceImportSkipsMalformedRows(t *testing.T) {
	students, _, svc := newExportFixture(t)
	students.students = append(students.students, models.Student{ID: "s2", RegNo: "", FullName: "No RegNo"})

	_, err := svc.ExportStudents(context.Background())
	require.NoError(t, err)

	result, err := svc.ImportStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestExportServiceImportMissingFile(t *testing.T) {
	_, _, svc := newExportFixture(t)

	_, err := svc.ImportStudents(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestExportServiceBackup(t *testing.T) {
	_, _, svc := newExportFixture(t)

	_, err := svc.ExportStudents(context.Background())
	require.NoError(t, err)

	result, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Path, "backups/"))
	assert.Greater(t, result.SizeBytes, int64(0))

	size, err := svc.BackupSize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.SizeBytes, size)
}

func TestExportServiceRenderTranscriptCSV(t *testing.T) {
	_, _, svc := newExportFixture(t)

	payload, filename, mime, err := svc.RenderTranscript(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "transcript_2024CS001.csv", filename)
	assert.Equal(t, "text/csv", mime)

	content := string(payload)
	assert.Contains(t, content, "course_code,title,marks,grade_points,grade")
	assert.Contains(t, content, "CS101,Programming,85.00,9.00,A")
}

func TestExportServiceRenderTranscriptPDF(t *testing.T) {
	_, _, svc := newExportFixture(t)

	payload, filename, mime, err := svc.RenderTranscript(context.Background(), "s1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "transcript_2024CS001.pdf", filename)
	assert.Equal(t, "application/pdf", mime)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportServiceRenderTranscriptUnknownFormat(t *testing.T) {
	_, _, svc := newExportFixture(t)

	_, _, _, err := svc.RenderTranscript(context.Background(), "s1", "xml")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
