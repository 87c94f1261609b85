package models

import (
	"errors"
	"strings"
	"time"
)

// Semester identifies the teaching period within an academic year.
type Semester string

// Recognised semesters.
const (
	SemesterSpring Semester = "SPRING"
	SemesterSummer Semester = "SUMMER"
	SemesterFall   Semester = "FALL"
)

// ParseSemester normalises raw input into a Semester.
func ParseSemester(raw string) (Semester, error) {
	s := Semester(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case SemesterSpring, SemesterSummer, SemesterFall:
		return s, nil
	}
	return "", errors.New("unknown semester: " + raw)
}

// CourseCode is a normalised (trimmed, uppercase) course identifier.
// Two codes are equal iff their normalised strings match.
type CourseCode string

// NewCourseCode validates and normalises a raw course code.
func NewCourseCode(raw string) (CourseCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", errors.New("course code cannot be empty")
	}
	return CourseCode(code), nil
}

func (c CourseCode) String() string { return string(c) }

// Course describes an offering in the course catalog.
type Course struct {
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	Credits      int       `db:"credits" json:"credits"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	Semester     Semester  `db:"semester" json:"semester"`
	Department   string    `db:"department" json:"department"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter encapsulates allowed search parameters for listing courses.
type CourseFilter struct {
	Search       string
	Department   string
	Semester     Semester
	InstructorID string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
