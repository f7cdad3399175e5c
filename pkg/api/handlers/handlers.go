// Package handlers holds the dashboard summary endpoints and the health
// probe. Entity-specific endpoints live in the sub-packages.
package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qaforge/qatrack/pkg/api/envelope"
	"github.com/qaforge/qatrack/pkg/apperrors"
	"github.com/qaforge/qatrack/pkg/models"
)

const apiVersion = "1.0.0"

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "QA test management API is running",
		"version":   apiVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetDashboardStats returns the landing-page totals. Coverage is the share
// of test cases with at least a passing execution count behind them,
// expressed as passed executions over total cases.
func (h *Handler) GetDashboardStats(c *gin.Context) {
	var totalTestCases, passedTests, activeDefects int64

	if err := h.db.Model(&models.TestCase{}).Count(&totalTestCases).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "count test cases", Err: err})
		return
	}
	if err := h.db.Model(&models.TestExecution{}).
		Where("status = ?", string(models.StatusPassed)).
		Count(&passedTests).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "count passed executions", Err: err})
		return
	}
	if err := h.db.Model(&models.Defect{}).
		Where("status NOT IN ?", []string{models.DefectClosed, models.DefectResolved}).
		Count(&activeDefects).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "count active defects", Err: err})
		return
	}

	var coverage float64
	if totalTestCases > 0 {
		coverage = math.Round(float64(passedTests)/float64(totalTestCases)*1000) / 10
	}

	envelope.OK(c, gin.H{
		"totalTestCases": totalTestCases,
		"passedTests":    passedTests,
		"activeDefects":  activeDefects,
		"testCoverage":   coverage,
	})
}

func (h *Handler) GetActiveTestPlans(c *gin.Context) {
	var plans []models.TestPlan
	err := h.db.
		Where("status IN ?", []string{"Planning", "In Progress", "Completed"}).
		Order("created_at DESC").
		Limit(10).
		Find(&plans).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list active test plans", Err: err})
		return
	}
	envelope.OK(c, plans)
}

func (h *Handler) GetRecentDefects(c *gin.Context) {
	var defects []models.Defect
	err := h.db.Order("created_at DESC").Limit(10).Find(&defects).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list recent defects", Err: err})
		return
	}
	envelope.OK(c, defects)
}
