package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByStudentAndCourse(ctx context.Context, studentID, courseCode string) (*models.Enrollment, error)
	Exists(ctx context.Context, studentID, courseCode string) (bool, error)
	SemesterCredits(ctx context.Context, studentID string, semester models.Semester, year int) (int, error)
	UpdateMarks(ctx context.Context, id string, marks float64, grade models.Grade) error
	Delete(ctx context.Context, studentID, courseCode string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EnrollRequest describes enrollment creation payload.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseCode string `json:"course_code" validate:"required"`
	Semester   string `json:"semester" validate:"required,oneof=SPRING SUMMER FALL spring summer fall"`
	Year       int    `json:"year" validate:"required,gte=1900"`
}

// RecordGradeRequest carries marks for an existing enrollment. Marks are
// deliberately not range-validated: out-of-range values pass through the
// grade scale unchanged.
type RecordGradeRequest struct {
	CourseCode string  `json:"course_code" validate:"required"`
	Marks      float64 `json:"marks"`
}

// EnrollmentService is the sole writer of enrollments. It enforces the
// per-course uniqueness rule and the per-(student, semester, year) credit cap.
type EnrollmentService struct {
	repo       enrollmentRepository
	students   studentReader
	courses    courseReader
	cache      cacheStore
	validator  *validator.Validate
	logger     *zap.Logger
	maxCredits int

	// serializes the credit check-then-act; a single coarse lock is enough
	// for the expected write volume
	mu sync.Mutex
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseReader, cache cacheStore, maxCredits int, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxCredits <= 0 {
		maxCredits = 24
	}
	return &EnrollmentService{
		repo:       repo,
		students:   students,
		courses:    courses,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		maxCredits: maxCredits,
	}
}

// Enroll registers a student in a course for a semester. The credit cap is
// checked before the uniqueness rule; a failure at either step leaves no
// partial state behind.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	code, err := models.NewCourseCode(req.CourseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course code")
	}
	semester, err := models.ParseSemester(req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByCode(ctx, code.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentCredits, err := s.repo.SemesterCredits(ctx, student.ID, semester, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum semester credits")
	}
	if currentCredits+course.Credits > s.maxCredits {
		return nil, appErrors.Clone(appErrors.ErrCreditLimitExceeded, "")
	}

	exists, err := s.repo.Exists(ctx, student.ID, code.String())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "student already enrolled in course: "+code.String())
	}

	enrollment := &models.Enrollment{
		StudentID:  student.ID,
		CourseCode: code.String(),
		Semester:   semester,
		Year:       req.Year,
		EnrolledAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.invalidateTranscript(ctx, student.ID)
	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("course_code", code.String()),
		zap.String("semester", string(semester)),
		zap.Int("year", req.Year))
	return enrollment, nil
}

// Unenroll removes the student's enrollment in a course. Removing a missing
// enrollment is a no-op, and a subsequent Enroll for the same course succeeds.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, courseCode string) error {
	code, err := models.NewCourseCode(courseCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course code")
	}
	if err := s.repo.Delete(ctx, studentID, code.String()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll")
	}
	s.invalidateTranscript(ctx, studentID)
	return nil
}

// RecordGrade stores marks and the derived grade for an enrollment. An
// unknown student or course code is a silent no-op rather than an error,
// mirroring the interactive workflow it replaced: the nil result tells the
// caller nothing was updated.
func (s *EnrollmentService) RecordGrade(ctx context.Context, studentID string, req RecordGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	code, err := models.NewCourseCode(req.CourseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course code")
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			s.logger.Debug("record grade skipped, unknown student", zap.String("student_id", studentID))
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollment, err := s.repo.FindByStudentAndCourse(ctx, studentID, code.String())
	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Debug("record grade skipped, no enrollment",
				zap.String("student_id", studentID),
				zap.String("course_code", code.String()))
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	enrollment.RecordMarks(req.Marks)
	if err := s.repo.UpdateMarks(ctx, enrollment.ID, *enrollment.Marks, *enrollment.Grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	s.invalidateTranscript(ctx, studentID)
	return enrollment, nil
}

// ListByStudent returns the student's enrollments in insertion order.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

func (s *EnrollmentService) invalidateTranscript(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, transcriptCacheKey(studentID)); err != nil {
		s.logger.Warn("transcript cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
