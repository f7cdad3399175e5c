// Package execution records test execution events. Executions are
// append-only; recording one against a plan also maintains the plan's
// rollup counters inside the same transaction.
package execution

import (
	"net/http"
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

type RecordRequest struct {
	TestCaseID    string `json:"test_case_id"`
	TestPlanID    string `json:"test_plan_id"`
	ExecutedBy    string `json:"executed_by"`
	Status        string `json:"status"`
	ActualResult  string `json:"actual_result"`
	Comments      string `json:"comments"`
	Environment   string `json:"environment"`
	BuildVersion  string `json:"build_version"`
	ExecutionTime *int   `json:"execution_time"`
}

func (h *Handler) Record(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var missing []string
	if req.TestCaseID == "" {
		missing = append(missing, "test_case_id")
	}
	if req.ExecutedBy == "" {
		missing = append(missing, "executed_by")
	}
	if req.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		envelope.Fail(c, &apperrors.ValidationError{Missing: missing})
		return
	}

	status := models.ExecutionStatus(req.Status)
	if status != models.StatusPassed && status != models.StatusFailed && status != models.StatusBlocked {
		envelope.Fail(c, &apperrors.ValidationError{Invalid: []string{"status"}})
		return
	}

	var executionID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.TestCase{}).Where("test_case_id = ?", req.TestCaseID).Count(&n).Error; err != nil {
			return &apperrors.StoreError{Op: "check test case", Err: err}
		}
		if n == 0 {
			return &apperrors.ReferentialError{Resource: "test case", ID: req.TestCaseID}
		}
		if req.TestPlanID != "" {
			if err := tx.Model(&models.TestPlan{}).Where("plan_id = ?", req.TestPlanID).Count(&n).Error; err != nil {
				return &apperrors.StoreError{Op: "check test plan", Err: err}
			}
			if n == 0 {
				return &apperrors.ReferentialError{Resource: "test plan", ID: req.TestPlanID}
			}
		}

		var err error
		executionID, err = ident.New(tx, ident.Execution)
		if err != nil {
			return &apperrors.StoreError{Op: "allocate execution id", Err: err}
		}

		// Planless executions store NULL, not the empty string.
		var planID *string
		if req.TestPlanID != "" {
			planID = &req.TestPlanID
		}

		execution := models.TestExecution{
			ExecutionID:   executionID,
			TestCaseID:    req.TestCaseID,
			TestPlanID:    planID,
			ExecutedBy:    req.ExecutedBy,
			Status:        req.Status,
			ActualResult:  req.ActualResult,
			Comments:      req.Comments,
			Environment:   req.Environment,
			BuildVersion:  req.BuildVersion,
			ExecutionTime: req.ExecutionTime,
		}
		if err := tx.Create(&execution).Error; err != nil {
			return &apperrors.StoreError{Op: "create execution", Err: err}
		}

		if req.TestPlanID != "" {
			return incrementRollups(tx, req.TestPlanID, status)
		}
		return nil
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Created(c, "Test execution recorded successfully", gin.H{"execution_id": executionID})
}

// incrementRollups bumps the plan counters with server-side arithmetic so
// concurrent recorders against the same plan cannot lose updates. Blocked
// counts as executed but neither passed nor failed.
func incrementRollups(tx *gorm.DB, planID string, status models.ExecutionStatus) error {
	updates := map[string]any{
		"executed_test_cases": gorm.Expr("executed_test_cases + 1"),
		"updated_at":          time.Now(),
	}
	switch status {
	case models.StatusPassed:
		updates["passed_test_cases"] = gorm.Expr("passed_test_cases + 1")
	case models.StatusFailed:
		updates["failed_test_cases"] = gorm.Expr("failed_test_cases + 1")
	}

	err := tx.Model(&models.TestPlan{}).Where("plan_id = ?", planID).Updates(updates).Error
	if err != nil {
		return &apperrors.StoreError{Op: "update plan rollups", Err: err}
	}
	return nil
}

func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&models.TestExecution{})

	if v := c.Query("test_case_id"); v != "" {
		q = q.Where("test_case_id = ?", v)
	}
	if v := c.Query("test_plan_id"); v != "" {
		q = q.Where("test_plan_id = ?", v)
	}

	var executions []models.TestExecution
	if err := q.Order("execution_date DESC").Find(&executions).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list executions", Err: err})
		return
	}
	envelope.OK(c, executions)
}
