package report

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/qaforge/qatrack/pkg/api/envelope"
	"github.com/qaforge/qatrack/pkg/apperrors"
	"github.com/qaforge/qatrack/pkg/models"
)

const trendWindow = 30

type ExecutionTrend struct {
	Date   string `json:"date"`
	Total  int64  `json:"total"`
	Passed int64  `json:"passed"`
	Failed int64  `json:"failed"`
}

type DefectTrend struct {
	Date     string `json:"date"`
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

// GetExecutionTrends buckets executions per calendar day, newest first.
// Grouping happens in Go so the query stays portable across the sqlite
// and postgres drivers.
func (h *Handler) GetExecutionTrends(c *gin.Context) {
	var executions []models.TestExecution
	err := h.db.Select("execution_date, status").Find(&executions).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "load executions", Err: err})
		return
	}

	byDay := make(map[string]*ExecutionTrend)
	for _, execution := range executions {
		day := execution.ExecutionDate.Format(dateLayout)
		trend, ok := byDay[day]
		if !ok {
			trend = &ExecutionTrend{Date: day}
			byDay[day] = trend
		}
		trend.Total++
		switch models.ExecutionStatus(execution.Status) {
		case models.StatusPassed:
			trend.Passed++
		case models.StatusFailed:
			trend.Failed++
		}
	}

	trends := make([]ExecutionTrend, 0, len(byDay))
	for _, trend := range byDay {
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date > trends[j].Date })
	if len(trends) > trendWindow {
		trends = trends[:trendWindow]
	}

	envelope.OK(c, trends)
}

// GetDefectTrends buckets defects per day and severity, newest first.
func (h *Handler) GetDefectTrends(c *gin.Context) {
	var defects []models.Defect
	err := h.db.Select("created_at, severity").Find(&defects).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "load defects", Err: err})
		return
	}

	type bucket struct {
		date     string
		severity string
	}
	counts := make(map[bucket]int64)
	for _, defect := range defects {
		counts[bucket{defect.CreatedAt.Format(dateLayout), defect.Severity}]++
	}

	trends := make([]DefectTrend, 0, len(counts))
	for key, count := range counts {
		trends = append(trends, DefectTrend{Date: key.date, Severity: key.severity, Count: count})
	}
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Date != trends[j].Date {
			return trends[i].Date > trends[j].Date
		}
		return trends[i].Severity < trends[j].Severity
	})
	if len(trends) > trendWindow {
		trends = trends[:trendWindow]
	}

	envelope.OK(c, trends)
}
