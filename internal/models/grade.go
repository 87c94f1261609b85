package models

// Grade is the letter grade derived from numeric marks.
type Grade string

// Letter grades in descending order of grade points.
const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// Points returns the grade-point value used for GPA weighting.
func (g Grade) Points() float64 {
	switch g {
	case GradeS:
		return 10.0
	case GradeA:
		return 9.0
	case GradeB:
		return 8.0
	case GradeC:
		return 7.0
	case GradeD:
		return 6.0
	case GradeE:
		return 5.0
	default:
		return 0.0
	}
}

// GradeFromMarks maps numeric marks to a letter grade. The mapping is total:
// marks are never range-checked, so values above 100 or below 0 still resolve
// (150 -> S, -10 -> F).
func GradeFromMarks(marks float64) Grade {
	switch {
	case marks >= 90:
		return GradeS
	case marks >= 80:
		return GradeA
	case marks >= 70:
		return GradeB
	case marks >= 60:
		return GradeC
	case marks >= 50:
		return GradeD
	case marks >= 40:
		return GradeE
	default:
		return GradeF
	}
}
