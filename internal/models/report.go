package models

// GPARanking is a row in the top-students report.
type GPARanking struct {
	StudentID     string  `json:"student_id"`
	RegNo         string  `json:"reg_no"`
	FullName      string  `json:"full_name"`
	GPA           float64 `json:"gpa"`
	GradedCredits int     `json:"graded_credits"`
}

// GradeDistributionRow counts graded enrollments per letter grade.
type GradeDistributionRow struct {
	Grade Grade `json:"grade"`
	Count int   `json:"count"`
}
