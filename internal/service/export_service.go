package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
	"github.com/noah-isme/campus-records-api/pkg/export"
)

const (
	studentsFile = "students.csv"
	coursesFile  = "courses.csv"
)

// Supported transcript export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type catalogStudents interface {
	ListAll(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type catalogCourses interface {
	ListAll(ctx context.Context) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Backup() (string, error)
	BackupSize() (int64, error)
}

type transcriptBuilder interface {
	Transcript(ctx context.Context, studentID string) (*models.Transcript, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	Parse(r io.Reader) (export.Dataset, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ImportResult summarises an import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// BackupResult describes a completed backup.
type BackupResult struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// ExportService moves catalog data between the database and the data
// directory, and renders transcript downloads.
type ExportService struct {
	students    catalogStudents
	courses     catalogCourses
	enrollments enrollmentLister
	transcripts transcriptBuilder
	store       fileStore
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(students catalogStudents, courses catalogCourses, enrollments enrollmentLister, transcripts transcriptBuilder, store fileStore, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		transcripts: transcripts,
		store:       store,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// ExportStudents writes the student catalog to students.csv in the data dir.
func (s *ExportService) ExportStudents(ctx context.Context) (string, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	data := export.Dataset{Headers: []string{"id", "reg_no", "full_name", "email", "active", "created_at"}}
	for _, student := range students {
		data.Rows = append(data.Rows, map[string]string{
			"id":         student.ID,
			"reg_no":     student.RegNo,
			"full_name":  student.FullName,
			"email":      student.Email,
			"active":     strconv.FormatBool(student.Active),
			"created_at": student.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render students csv")
	}
	name, err := s.store.Save(studentsFile, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save students csv")
	}
	s.logger.Info("students exported", zap.String("file", name), zap.Int("count", len(students)))
	return name, nil
}

// ExportCourses writes the course catalog to courses.csv in the data dir.
func (s *ExportService) ExportCourses(ctx context.Context) (string, error) {
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	data := export.Dataset{Headers: []string{"code", "title", "credits", "instructor_id", "semester", "department", "active"}}
	for _, course := range courses {
		instructorID := ""
		if course.InstructorID != nil {
			instructorID = *course.InstructorID
		}
		data.Rows = append(data.Rows, map[string]string{
			"code":          course.Code,
			"title":         course.Title,
			"credits":       strconv.Itoa(course.Credits),
			"instructor_id": instructorID,
			"semester":      string(course.Semester),
			"department":    course.Department,
			"active":        strconv.FormatBool(course.Active),
		})
	}

	payload, err := s.csv.Render(data)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render courses csv")
	}
	name, err := s.store.Save(coursesFile, payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save courses csv")
	}
	s.logger.Info("courses exported", zap.String("file", name), zap.Int("count", len(courses)))
	return name, nil
}

// ImportStudents loads students.csv from the data dir. Malformed rows are
// skipped, not fatal.
func (s *ExportService) ImportStudents(ctx context.Context) (*ImportResult, error) {
	file, err := s.store.Open(studentsFile)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "students.csv not found in data directory")
	}
	defer file.Close() //nolint:errcheck

	data, err := s.csv.Parse(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed students csv")
	}

	result := &ImportResult{}
	for _, row := range data.Rows {
		if row["reg_no"] == "" || row["full_name"] == "" {
			result.Skipped++
			continue
		}
		active := true
		if parsed, err := strconv.ParseBool(row["active"]); err == nil {
			active = parsed
		}
		student := &models.Student{
			ID:       row["id"],
			RegNo:    row["reg_no"],
			FullName: row["full_name"],
			Email:    row["email"],
			Active:   active,
		}
		if raw := row["created_at"]; raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				student.CreatedAt = ts
			}
		}
		if err := s.students.Create(ctx, student); err != nil {
			s.logger.Warn("student import row failed", zap.String("reg_no", student.RegNo), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ImportCourses loads courses.csv from the data dir. Malformed rows are
// skipped, not fatal.
func (s *ExportService) ImportCourses(ctx context.Context) (*ImportResult, error) {
	file, err := s.store.Open(coursesFile)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "courses.csv not found in data directory")
	}
	defer file.Close() //nolint:errcheck

	data, err := s.csv.Parse(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed courses csv")
	}

	result := &ImportResult{}
	for _, row := range data.Rows {
		code, err := models.NewCourseCode(row["code"])
		if err != nil {
			result.Skipped++
			continue
		}
		semester, err := models.ParseSemester(row["semester"])
		if err != nil {
			result.Skipped++
			continue
		}
		credits, err := strconv.Atoi(row["credits"])
		if err != nil || credits <= 0 || row["title"] == "" {
			result.Skipped++
			continue
		}
		active := true
		if parsed, err := strconv.ParseBool(row["active"]); err == nil {
			active = parsed
		}
		course := &models.Course{
			Code:       code.String(),
			Title:      row["title"],
			Credits:    credits,
			Semester:   semester,
			Department: row["department"],
			Active:     active,
		}
		if id := row["instructor_id"]; id != "" {
			course.InstructorID = &id
		}
		if err := s.courses.Create(ctx, course); err != nil {
			s.logger.Warn("course import row failed", zap.String("code", course.Code), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Imported++
	}
	return result, nil
}

// Backup snapshots the data directory into a timestamped backup folder and
// reports the accumulated backup size.
func (s *ExportService) Backup(ctx context.Context) (*BackupResult, error) {
	path, err := s.store.Backup()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to back up data directory")
	}
	size, err := s.store.BackupSize()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to measure backups")
	}
	s.logger.Info("backup completed", zap.String("path", path), zap.Int64("size_bytes", size))
	return &BackupResult{Path: path, SizeBytes: size}, nil
}

// BackupSize reports the total size of all backups taken so far.
func (s *ExportService) BackupSize(ctx context.Context) (int64, error) {
	size, err := s.store.BackupSize()
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to measure backups")
	}
	return size, nil
}

// RenderTranscript produces a downloadable transcript in the requested
// format, returning the payload, a filename and the MIME type.
func (s *ExportService) RenderTranscript(ctx context.Context, studentID, format string) ([]byte, string, string, error) {
	transcript, err := s.transcripts.Transcript(ctx, studentID)
	if err != nil {
		return nil, "", "", err
	}
	details, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	data := export.Dataset{Headers: []string{"course_code", "title", "marks", "grade_points", "grade"}}
	for _, detail := range details {
		marks := "N/A"
		points := "0.00"
		grade := "Not Graded"
		if detail.Graded() {
			marks = fmt.Sprintf("%.2f", *detail.Marks)
			points = fmt.Sprintf("%.2f", detail.Grade.Points())
			grade = string(*detail.Grade)
		}
		data.Rows = append(data.Rows, map[string]string{
			"course_code":  detail.CourseCode,
			"title":        detail.CourseTitle,
			"marks":        marks,
			"grade_points": points,
			"grade":        grade,
		})
	}

	title := fmt.Sprintf("Transcript %s (GPA %.2f)", transcript.RegNo, transcript.GPA)
	switch format {
	case FormatPDF:
		payload, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript pdf")
		}
		return payload, "transcript_" + transcript.RegNo + ".pdf", "application/pdf", nil
	case FormatCSV, "":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript csv")
		}
		return payload, "transcript_" + transcript.RegNo + ".csv", "text/csv", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported format: "+format)
	}
}
