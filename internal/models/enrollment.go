package models

import (
	"fmt"
	"time"
)

// Enrollment binds a student to a course for a (semester, year) pair.
// Marks and Grade stay unset until a grade is recorded; once present, Grade
// is always GradeFromMarks(Marks).
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseCode string    `db:"course_code" json:"course_code"`
	Semester   Semester  `db:"semester" json:"semester"`
	Year       int       `db:"year" json:"year"`
	Marks      *float64  `db:"marks" json:"marks,omitempty"`
	Grade      *Grade    `db:"grade" json:"grade,omitempty"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// RecordMarks sets the marks and recomputes the derived grade. Recording
// again overwrites the previous values (correction semantics).
func (e *Enrollment) RecordMarks(marks float64) {
	grade := GradeFromMarks(marks)
	e.Marks = &marks
	e.Grade = &grade
}

// Graded reports whether marks have been recorded.
func (e *Enrollment) Graded() bool {
	return e.Marks != nil
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	RegNo       string `db:"reg_no" json:"reg_no"`
	CourseTitle string `db:"course_title" json:"course_title"`
	Credits     int    `db:"credits" json:"credits"`
}

// TranscriptLine renders the enrollment as a single transcript row.
func (e EnrollmentDetail) TranscriptLine() string {
	if e.Graded() {
		return fmt.Sprintf("%s - %s: %.2f (%.2f) - Grade: %s",
			e.CourseCode, e.CourseTitle, *e.Marks, e.Grade.Points(), *e.Grade)
	}
	return fmt.Sprintf("%s - %s: N/A (0.00) - Grade: Not Graded", e.CourseCode, e.CourseTitle)
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	CourseCode string
	Semester   Semester
	Year       int
	Graded     *bool
}

// Transcript aggregates a student's academic state into a printable report.
type Transcript struct {
	StudentID string   `json:"student_id"`
	RegNo     string   `json:"reg_no"`
	FullName  string   `json:"full_name"`
	GPA       float64  `json:"gpa"`
	Lines     []string `json:"lines"`
	Text      string   `json:"text"`
}
