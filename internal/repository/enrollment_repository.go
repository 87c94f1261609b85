package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-records-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments. The enrollments
// table is the single source of truth: per-student views and per-semester
// credit sums are both derived from it, so removals are visible everywhere.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_code, semester, year, marks, grade, enrolled_at)
        VALUES (:id, :student_id, :course_code, :semester, :year, :marks, :grade, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByStudentAndCourse returns the student's enrollment for a course, if any.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseCode string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_code, semester, year, marks, grade, enrolled_at
        FROM enrollments WHERE student_id = $1 AND course_code = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseCode); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists checks whether the student already holds an enrollment in the
// course, regardless of semester or year.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, courseCode string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_code = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseCode); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// SemesterCredits sums the credits of the student's enrollments for the
// given (semester, year) pair.
func (r *EnrollmentRepository) SemesterCredits(ctx context.Context, studentID string, semester models.Semester, year int) (int, error) {
	const query = `SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e
        JOIN courses c ON c.code = e.course_code
        WHERE e.student_id = $1 AND e.semester = $2 AND e.year = $3`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID, semester, year); err != nil {
		return 0, fmt.Errorf("sum semester credits: %w", err)
	}
	return total, nil
}

// UpdateMarks stores recorded marks and the derived grade.
func (r *EnrollmentRepository) UpdateMarks(ctx context.Context, id string, marks float64, grade models.Grade) error {
	const query = `UPDATE enrollments SET marks = $2, grade = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, marks, grade); err != nil {
		return fmt.Errorf("update enrollment marks: %w", err)
	}
	return nil
}

// Delete removes the student's enrollment in a course. Deleting a missing
// enrollment is not an error.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID, courseCode string) error {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND course_code = $2`
	if _, err := r.db.ExecContext(ctx, query, studentID, courseCode); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ListByStudent returns the student's enrollments with course context in
// insertion order.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_code, e.semester, e.year, e.marks, e.grade, e.enrolled_at,
        s.full_name AS student_name, s.reg_no, c.title AS course_title, c.credits
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.code = e.course_code
        WHERE e.student_id = $1
        ORDER BY e.enrolled_at`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListGraded returns every enrollment carrying a recorded grade, with
// student and course context. Used by the reporting queries.
func (r *EnrollmentRepository) ListGraded(ctx context.Context) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_code, e.semester, e.year, e.marks, e.grade, e.enrolled_at,
        s.full_name AS student_name, s.reg_no, c.title AS course_title, c.credits
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN courses c ON c.code = e.course_code
        WHERE e.marks IS NOT NULL
        ORDER BY e.student_id, e.enrolled_at`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list graded enrollments: %w", err)
	}
	return enrollments, nil
}
