package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-records-api/internal/models"
)

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{RegNo: "2024CS001", FullName: "Asha Rao", Email: "asha@example.edu", Active: true}
	require.NoError(t, repo.Create(context.Background(), student))
	require.NotEmpty(t, student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "reg_no", "full_name", "email", "active", "created_at", "updated_at"}).
		AddRow("stu-1", "2024CS001", "Asha Rao", "asha@example.edu", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reg_no, full_name, email, active, created_at, updated_at FROM students WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, "2024CS001", student.RegNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "reg_no", "full_name", "email", "active", "created_at", "updated_at"}).
		AddRow("stu-1", "2024CS001", "Asha Rao", "asha@example.edu", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT s.id, s.reg_no, s.full_name").
		WithArgs("%asha%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s")).
		WithArgs("%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "asha"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
