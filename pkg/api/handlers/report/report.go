// Package report computes aggregate statistics over the store and persists
// report metadata. Payloads are live: only the metadata row is stored, so
// regenerating a report reflects whatever the data says at that moment.
package report

import (
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qaforge/qatrack/pkg/api/envelope"
	"github.com/qaforge/qatrack/pkg/apperrors"
	"github.com/qaforge/qatrack/pkg/ident"
	"github.com/qaforge/qatrack/pkg/models"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type GenerateRequest struct {
	ReportType     string   `json:"report_type"`
	Title          string   `json:"title"`
	DateRangeStart string   `json:"date_range_start"`
	DateRangeEnd   string   `json:"date_range_end"`
	IndustryFilter string   `json:"industry_filter"`
	PhaseFilter    string   `json:"phase_filter"`
	GeneratedBy    string   `json:"generated_by"`
	Sections       []string `json:"sections"`
}

type ExecutiveSummary struct {
	TotalTestCases  int64   `json:"total_test_cases"`
	TotalExecutions int64   `json:"total_executions"`
	PassedTests     int64   `json:"passed_tests"`
	FailedTests     int64   `json:"failed_tests"`
	PassRate        float64 `json:"pass_rate"`
	TotalDefects    int64   `json:"total_defects"`
	OpenDefects     int64   `json:"open_defects"`
}

type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DefectAnalysis struct {
	BySeverity []SeverityCount `json:"by_severity"`
	ByStatus   []StatusCount   `json:"by_status"`
}

type QualityMetrics struct {
	AvgExecutionTime float64 `json:"avg_execution_time"`
}

type CoverageRow struct {
	RequirementID string `json:"requirement_id"`
	Title         string `json:"title"`
	CoverageCount int64  `json:"coverage_count"`
}

// Generate runs the requested sections, persists the report metadata row,
// and returns the computed payload alongside the new report id.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	data := gin.H{}

	if slices.Contains(req.Sections, "executive_summary") {
		summary, err := h.executiveSummary()
		if err != nil {
			envelope.Fail(c, err)
			return
		}
		data["executive_summary"] = summary
	}

	if slices.Contains(req.Sections, "test_execution") {
		executions, err := h.executionsInRange(req.DateRangeStart, req.DateRangeEnd)
		if err != nil {
			envelope.Fail(c, err)
			return
		}
		data["test_executions"] = executions
	}

	if slices.Contains(req.Sections, "defect_analysis") {
		analysis, err := h.defectAnalysis()
		if err != nil {
			envelope.Fail(c, err)
			return
		}
		data["defect_analysis"] = analysis
	}

	if slices.Contains(req.Sections, "quality_metrics") {
		metrics, err := h.qualityMetrics()
		if err != nil {
			envelope.Fail(c, err)
			return
		}
		data["quality_metrics"] = metrics
	}

	if slices.Contains(req.Sections, "rtm_coverage") {
		coverage, err := h.rtmCoverage()
		if err != nil {
			envelope.Fail(c, err)
			return
		}
		data["rtm_coverage"] = coverage
	}

	var reportID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		reportID, err = ident.New(tx, ident.Report)
		if err != nil {
			return &apperrors.StoreError{Op: "allocate report id", Err: err}
		}
		row := models.Report{
			ReportID:       reportID,
			ReportType:     req.ReportType,
			Title:          req.Title,
			DateRangeStart: req.DateRangeStart,
			DateRangeEnd:   req.DateRangeEnd,
			IndustryFilter: req.IndustryFilter,
			PhaseFilter:    req.PhaseFilter,
			GeneratedBy:    req.GeneratedBy,
			Status:         "Generated",
		}
		if err := tx.Create(&row).Error; err != nil {
			return &apperrors.StoreError{Op: "create report", Err: err}
		}
		return nil
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Created(c, "Report generated successfully", gin.H{
		"report_id":   reportID,
		"report_data": data,
	})
}

func (h *Handler) executiveSummary() (*ExecutiveSummary, error) {
	s := &ExecutiveSummary{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&s.TotalTestCases, h.db.Model(&models.TestCase{})},
		{&s.TotalExecutions, h.db.Model(&models.TestExecution{})},
		{&s.PassedTests, h.db.Model(&models.TestExecution{}).Where("status = ?", string(models.StatusPassed))},
		{&s.FailedTests, h.db.Model(&models.TestExecution{}).Where("status = ?", string(models.StatusFailed))},
		{&s.TotalDefects, h.db.Model(&models.Defect{})},
		{&s.OpenDefects, h.db.Model(&models.Defect{}).Where("status = ?", models.DefectOpen)},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return nil, &apperrors.StoreError{Op: "executive summary", Err: err}
		}
	}

	if s.TotalExecutions > 0 {
		s.PassRate = math.Round(float64(s.PassedTests)/float64(s.TotalExecutions)*10000) / 100
	}
	return s, nil
}

func (h *Handler) executionsInRange(start, end string) ([]models.TestExecution, error) {
	q := h.db.Model(&models.TestExecution{})
	if start != "" && end != "" {
		startTime, okStart := parseDate(start)
		endTime, okEnd := parseDate(end)
		if okStart && okEnd {
			q = q.Where("execution_date BETWEEN ? AND ?", startTime, endOfDay(endTime))
		}
	}

	executions := []models.TestExecution{}
	if err := q.Order("execution_date DESC").Find(&executions).Error; err != nil {
		return nil, &apperrors.StoreError{Op: "list executions", Err: err}
	}
	return executions, nil
}

func (h *Handler) defectAnalysis() (*DefectAnalysis, error) {
	analysis := &DefectAnalysis{
		BySeverity: []SeverityCount{},
		ByStatus:   []StatusCount{},
	}

	err := h.db.Model(&models.Defect{}).
		Select("severity, COUNT(*) as count").
		Group("severity").
		Scan(&analysis.BySeverity).Error
	if err != nil {
		return nil, &apperrors.StoreError{Op: "defects by severity", Err: err}
	}

	err = h.db.Model(&models.Defect{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&analysis.ByStatus).Error
	if err != nil {
		return nil, &apperrors.StoreError{Op: "defects by status", Err: err}
	}

	return analysis, nil
}

// qualityMetrics averages execution_time over executions that recorded
// one; rows with no time stay out of both numerator and denominator.
func (h *Handler) qualityMetrics() (*QualityMetrics, error) {
	var avg *float64
	err := h.db.Model(&models.TestExecution{}).
		Select("AVG(execution_time)").
		Where("execution_time IS NOT NULL").
		Scan(&avg).Error
	if err != nil {
		return nil, &apperrors.StoreError{Op: "average execution time", Err: err}
	}

	metrics := &QualityMetrics{}
	if avg != nil {
		metrics.AvgExecutionTime = *avg
	}
	return metrics, nil
}

func (h *Handler) rtmCoverage() ([]CoverageRow, error) {
	rows := []CoverageRow{}
	err := h.db.Table("requirements").
		Select("requirements.requirement_id, requirements.title, COUNT(test_case_requirements.test_case_id) as coverage_count").
		Joins("LEFT JOIN test_case_requirements ON test_case_requirements.requirement_id = requirements.requirement_id").
		Group("requirements.requirement_id, requirements.title").
		Order("requirements.requirement_id").
		Scan(&rows).Error
	if err != nil {
		return nil, &apperrors.StoreError{Op: "rtm coverage", Err: err}
	}
	return rows, nil
}

func (h *Handler) List(c *gin.Context) {
	var reports []models.Report
	err := h.db.Order("generated_at DESC").Limit(50).Find(&reports).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list reports", Err: err})
		return
	}
	envelope.OK(c, reports)
}

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, bool) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// endOfDay widens a date-only bound so the whole end day is inclusive.
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
