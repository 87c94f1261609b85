package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type mockEnrollmentLister struct {
	details map[string][]models.EnrollmentDetail
	calls   int
}

func (m *mockEnrollmentLister) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	m.calls++
	return m.details[studentID], nil
}

type mockCache struct {
	values map[string][]byte
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func graded(code, title string, credits int, marks float64) models.EnrollmentDetail {
	grade := models.GradeFromMarks(marks)
	return models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			StudentID:  "s1",
			CourseCode: code,
			Marks:      &marks,
			Grade:      &grade,
		},
		StudentName: "Asha Rao",
		RegNo:       "2024CS001",
		CourseTitle: title,
		Credits:     credits,
	}
}

func ungraded(code, title string, credits int) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment:  models.Enrollment{StudentID: "s1", CourseCode: code},
		StudentName: "Asha Rao",
		RegNo:       "2024CS001",
		CourseTitle: title,
		Credits:     credits,
	}
}

func TestTranscriptServiceGPA(t *testing.T) {
	students := &mockStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", Active: true},
	}}
	lister := &mockEnrollmentLister{details: map[string][]models.EnrollmentDetail{
		"s1": {
			graded("CS101", "Programming", 3, 85),  // A, 9.0
			graded("MA101", "Calculus", 4, 72),     // B, 8.0
			ungraded("PH101", "Physics", 3),        // contributes nothing
		},
	}}
	svc := NewTranscriptService(students, lister, nil, 0, zap.NewNop())

	gpa, err := svc.GPA(context.Background(), "s1")
	require.NoError(t, err)
	// (3*9.0 + 4*8.0) / 7 credits
	assert.InDelta(t, 59.0/7.0, gpa, 0.0001)
}

func TestTranscriptServiceEmptyGPA(t *testing.T) {
	students := &mockStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", Active: true},
	}}
	lister := &mockEnrollmentLister{}
	svc := NewTranscriptService(students, lister, nil, 0, zap.NewNop())

	gpa, err := svc.GPA(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, gpa)
}

func TestTranscriptServiceRendering(t *testing.T) {
	students := &mockStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", Active: true},
	}}
	lister := &mockEnrollmentLister{details: map[string][]models.EnrollmentDetail{
		"s1": {
			graded("CS101", "Programming", 3, 85),
			ungraded("PH101", "Physics", 3),
		},
	}}
	svc := NewTranscriptService(students, lister, nil, 0, zap.NewNop())

	transcript, err := svc.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "2024CS001", transcript.RegNo)
	require.Len(t, transcript.Lines, 2)
	assert.Equal(t, "CS101 - Programming: 85.00 (9.00) - Grade: A", transcript.Lines[0])
	assert.Equal(t, "PH101 - Physics: N/A (0.00) - Grade: Not Graded", transcript.Lines[1])
	assert.Contains(t, transcript.Text, "Transcript for Asha Rao (2024CS001)")
	assert.Contains(t, transcript.Text, "GPA: 9.00")
	assert.Contains(t, transcript.Text, "Courses:")
}

func TestTranscriptServiceCacheHit(t *testing.T) {
	students := &mockStudentReader{students: map[string]*models.Student{
		"s1": {ID: "s1", RegNo: "2024CS001", FullName: "Asha Rao", Active: true},
	}}
	lister := &mockEnrollmentLister{details: map[string][]models.EnrollmentDetail{
		"s1": {graded("CS101", "Programming", 3, 85)},
	}}
	cache := &mockCache{}
	svc := NewTranscriptService(students, lister, cache, time.Minute, zap.NewNop())

	first, err := svc.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	second, err := svc.Transcript(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, lister.calls)
}

func TestTranscriptServiceUnknownStudent(t *testing.T) {
	svc := NewTranscriptService(&mockStudentReader{}, &mockEnrollmentLister{}, nil, 0, zap.NewNop())

	_, err := svc.Transcript(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
