package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type enrollmentLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

// TranscriptService aggregates a student's enrollments into GPA and a
// printable transcript.
type TranscriptService struct {
	students    studentReader
	enrollments enrollmentLister
	cache       cacheStore
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(students studentReader, enrollments enrollmentLister, cache cacheStore, cacheTTL time.Duration, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &TranscriptService{
		students:    students,
		enrollments: enrollments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Transcript builds the student's transcript, serving from cache when fresh.
func (s *TranscriptService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	if s.cache != nil {
		var cached models.Transcript
		if err := s.cache.Get(ctx, transcriptCacheKey(studentID), &cached); err == nil {
			return &cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("transcript cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	details, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	transcript := buildTranscript(student, details)

	if s.cache != nil {
		if err := s.cache.Set(ctx, transcriptCacheKey(studentID), transcript, s.cacheTTL); err != nil {
			s.logger.Warn("transcript cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return transcript, nil
}

// GPA returns the student's credit-weighted grade point average.
func (s *TranscriptService) GPA(ctx context.Context, studentID string) (float64, error) {
	transcript, err := s.Transcript(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return transcript.GPA, nil
}

func transcriptCacheKey(studentID string) string {
	return "transcript:" + studentID
}

func buildTranscript(student *models.Student, details []models.EnrollmentDetail) *models.Transcript {
	gpa, _ := calculateGPA(details)

	lines := make([]string, 0, len(details))
	for _, detail := range details {
		lines = append(lines, detail.TranscriptLine())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transcript for %s (%s)\n", student.FullName, student.RegNo)
	fmt.Fprintf(&b, "GPA: %.2f\n\n", gpa)
	b.WriteString("Courses:\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return &models.Transcript{
		StudentID: student.ID,
		RegNo:     student.RegNo,
		FullName:  student.FullName,
		GPA:       gpa,
		Lines:     lines,
		Text:      b.String(),
	}
}

// calculateGPA returns the credit-weighted mean of grade points over graded
// enrollments, and the total graded credits. Ungraded enrollments contribute
// nothing; zero graded credits yields a GPA of 0.0.
func calculateGPA(details []models.EnrollmentDetail) (float64, int) {
	var totalPoints float64
	var totalCredits int
	for _, detail := range details {
		if !detail.Graded() {
			continue
		}
		totalPoints += detail.Grade.Points() * float64(detail.Credits)
		totalCredits += detail.Credits
	}
	if totalCredits == 0 {
		return 0.0, 0
	}
	return totalPoints / float64(totalCredits), totalCredits
}
