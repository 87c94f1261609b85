package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-records-api/internal/service"
	"github.com/noah-isme/campus-records-api/pkg/response"
)

// ExportHandler exposes CSV export/import, backups and transcript downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ExportStudents godoc
// @Summary Export the student catalog to students.csv
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exports/students [post]
func (h *ExportHandler) ExportStudents(c *gin.Context) {
	file, err := h.exports.ExportStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"file": file}, nil)
}

// ExportCourses godoc
// @Summary Export the course catalog to courses.csv
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exports/courses [post]
func (h *ExportHandler) ExportCourses(c *gin.Context) {
	file, err := h.exports.ExportCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"file": file}, nil)
}

// ImportStudents godoc
// @Summary Import students from students.csv in the data directory
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /imports/students [post]
func (h *ExportHandler) ImportStudents(c *gin.Context) {
	result, err := h.exports.ImportStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ImportCourses godoc
// @Summary Import courses from courses.csv in the data directory
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /imports/courses [post]
func (h *ExportHandler) ImportCourses(c *gin.Context) {
	result, err := h.exports.ImportCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Backup godoc
// @Summary Snapshot exported files into a timestamped backup folder
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups [post]
func (h *ExportHandler) Backup(c *gin.Context) {
	result, err := h.exports.Backup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BackupSize godoc
// @Summary Report the recursive size of all backups
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups/size [get]
func (h *ExportHandler) BackupSize(c *gin.Context) {
	size, err := h.exports.BackupSize(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"size_bytes": size}, nil)
}

// DownloadTranscript godoc
// @Summary Download a student's transcript as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /students/{id}/transcript/export [get]
func (h *ExportHandler) DownloadTranscript(c *gin.Context) {
	payload, filename, mime, err := h.exports.RenderTranscript(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, mime, payload)
}
