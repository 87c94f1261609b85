package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-records-api/internal/models"
	appErrors "github.com/noah-isme/campus-records-api/pkg/errors"
)

type gradedEnrollmentLister interface {
	ListGraded(ctx context.Context) ([]models.EnrollmentDetail, error)
}

// ReportService produces institution-wide academic summaries.
type ReportService struct {
	enrollments gradedEnrollmentLister
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(enrollments gradedEnrollmentLister, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{enrollments: enrollments, logger: logger}
}

// TopStudents ranks students by GPA over their graded enrollments.
func (s *ReportService) TopStudents(ctx context.Context, limit int) ([]models.GPARanking, error) {
	if limit <= 0 {
		limit = 10
	}
	details, err := s.enrollments.ListGraded(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list graded enrollments")
	}

	byStudent := make(map[string][]models.EnrollmentDetail)
	var order []string
	for _, detail := range details {
		if _, seen := byStudent[detail.StudentID]; !seen {
			order = append(order, detail.StudentID)
		}
		byStudent[detail.StudentID] = append(byStudent[detail.StudentID], detail)
	}

	rankings := make([]models.GPARanking, 0, len(order))
	for _, studentID := range order {
		group := byStudent[studentID]
		gpa, credits := calculateGPA(group)
		rankings = append(rankings, models.GPARanking{
			StudentID:     studentID,
			RegNo:         group[0].RegNo,
			FullName:      group[0].StudentName,
			GPA:           gpa,
			GradedCredits: credits,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].GPA > rankings[j].GPA
	})
	if len(rankings) > limit {
		rankings = rankings[:limit]
	}
	return rankings, nil
}

// GradeDistribution counts graded enrollments per letter grade, in
// descending grade-point order.
func (s *ReportService) GradeDistribution(ctx context.Context) ([]models.GradeDistributionRow, error) {
	details, err := s.enrollments.ListGraded(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list graded enrollments")
	}

	counts := make(map[models.Grade]int)
	for _, detail := range details {
		if detail.Grade == nil {
			continue
		}
		counts[*detail.Grade]++
	}

	ladder := []models.Grade{models.GradeS, models.GradeA, models.GradeB, models.GradeC, models.GradeD, models.GradeE, models.GradeF}
	rows := make([]models.GradeDistributionRow, 0, len(ladder))
	for _, grade := range ladder {
		rows = append(rows, models.GradeDistributionRow{Grade: grade, Count: counts[grade]})
	}
	return rows, nil
}
