package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", CourseCode: "CS101", Semester: models.SemesterFall, Year: 2024}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.False(t, enrollment.EnrolledAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySemesterCredits(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credits), 0) FROM enrollments e")).
		WithArgs("stu-1", models.SemesterFall, 2024).
		WillReturnRows(rows)

	total, err := repo.SemesterCredits(context.Background(), "stu-1", models.SemesterFall, 2024)
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_code = $2 LIMIT 1")).
		WithArgs("stu-1", "CS101").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", "CS101")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_code = $2 LIMIT 1")).
		WithArgs("stu-1", "MA101").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.Exists(context.Background(), "stu-1", "MA101")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateMarks(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET marks = $2, grade = $3 WHERE id = $1")).
		WithArgs("enr-1", 85.0, models.GradeA).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateMarks(context.Background(), "enr-1", 85.0, models.GradeA))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND course_code = $2")).
		WithArgs("stu-1", "CS101").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// deleting a missing enrollment is not an error
	require.NoError(t, repo.Delete(context.Background(), "stu-1", "CS101"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	marks := 85.0
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_code", "semester", "year", "marks", "grade", "enrolled_at", "student_name", "reg_no", "course_title", "credits"}).
		AddRow("enr-1", "stu-1", "CS101", models.SemesterFall, 2024, marks, models.GradeA, time.Now(), "Asha Rao", "2024CS001", "Programming", 3).
		AddRow("enr-2", "stu-1", "MA101", models.SemesterFall, 2024, nil, nil, time.Now(), "Asha Rao", "2024CS001", "Calculus", 4)
	mock.ExpectQuery("SELECT e.id, e.student_id, e.course_code").
		WithArgs("stu-1").
		WillReturnRows(rows)

	details, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.True(t, details[0].Graded())
	require.False(t, details[1].Graded())
	require.Equal(t, 3, details[0].Credits)
	require.NoError(t, mock.ExpectationsWereMet())
}
