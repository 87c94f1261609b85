package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-records-api/internal/service"
	"github.com/noah-isme/campus-records-api/pkg/response"
)

// ReportHandler exposes institution-wide academic reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// TopStudents godoc
// @Summary Rank students by GPA
// @Tags Reports
// @Produce json
// @Param limit query int false "Maximum number of students" default(10)
// @Success 200 {object} response.Envelope
// @Router /reports/top-students [get]
func (h *ReportHandler) TopStudents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rankings, err := h.reports.TopStudents(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rankings, nil)
}

// GradeDistribution godoc
// @Summary Count graded enrollments per letter grade
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/grade-distribution [get]
func (h *ReportHandler) GradeDistribution(c *gin.Context) {
	rows, err := h.reports.GradeDistribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
