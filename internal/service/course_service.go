package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Update(ctx context.Context, code, title string, credits int, department string) error
	Deactivate(ctx context.Context, code string) error
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

// CreateCourseRequest describes course creation payload. Code, title and
// positive credits are required; everything else is optional.
type CreateCourseRequest struct {
	Code         string `json:"code" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Credits      int    `json:"credits" validate:"required,gt=0"`
	InstructorID string `json:"instructor_id"`
	Semester     string `json:"semester" validate:"required,oneof=SPRING SUMMER FALL spring summer fall"`
	Department   string `json:"department"`
}

// UpdateCourseRequest describes course update payload.
type UpdateCourseRequest struct {
	Title      string `json:"title" validate:"required"`
	Credits    int    `json:"credits" validate:"required,gt=0"`
	Department string `json:"department"`
}

// CourseService manages the course catalog.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// Create adds a course to the catalog.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	code, err := models.NewCourseCode(req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course code")
	}
	semester, err := models.ParseSemester(req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester")
	}

	if _, err := s.repo.FindByCode(ctx, code.String()); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already exists: "+code.String())
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course")
	}

	course := &models.Course{
		Code:       code.String(),
		Title:      req.Title,
		Credits:    req.Credits,
		Semester:   semester,
		Department: req.Department,
		Active:     true,
	}
	if req.InstructorID != "" {
		course.InstructorID = &req.InstructorID
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Get loads a course by its normalised code.
func (s *CourseService) Get(ctx context.Context, rawCode string) (*models.Course, error) {
	code, err := models.NewCourseCode(rawCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course code")
	}
	course, err := s.repo.FindByCode(ctx, code.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Update changes a course's title, credits and department.
func (s *CourseService) Update(ctx context.Context, rawCode string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, rawCode)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, course.Code, req.Title, req.Credits, req.Department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return s.Get(ctx, course.Code)
}

// Deactivate soft-deletes a course.
func (s *CourseService) Deactivate(ctx context.Context, rawCode string) error {
	course, err := s.Get(ctx, rawCode)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, course.Code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	return nil
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}
