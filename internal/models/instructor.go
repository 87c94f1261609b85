package models

import "time"

// Instructor represents a member of the teaching staff.
type Instructor struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Profile renders a one-line descriptive summary.
func (i Instructor) Profile() string {
	return "Instructor ID: " + i.ID + ", Name: " + i.FullName + ", Email: " + i.Email + ", Department: " + i.Department
}
