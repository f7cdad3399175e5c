// Package defect implements defect listing, creation, and sparse-patch
// updates. A defect may optionally point at the test case that exposed it.
package defect

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

type CreateRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Severity         string `json:"severity"`
	Priority         string `json:"priority"`
	TestCaseID       string `json:"test_case_id"`
	AssignedTo       string `json:"assigned_to"`
	ReportedBy       string `json:"reported_by"`
	Environment      string `json:"environment"`
	StepsToReproduce string `json:"steps_to_reproduce"`
	ExpectedResult   string `json:"expected_result"`
	ActualResult     string `json:"actual_result"`
	Attachments      string `json:"attachments"`
}

// UpdateRequest is a sparse patch; nil fields stay untouched.
type UpdateRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Severity         *string    `json:"severity"`
	Priority         *string    `json:"priority"`
	Status           *string    `json:"status"`
	AssignedTo       *string    `json:"assigned_to"`
	Environment      *string    `json:"environment"`
	StepsToReproduce *string    `json:"steps_to_reproduce"`
	ExpectedResult   *string    `json:"expected_result"`
	ActualResult     *string    `json:"actual_result"`
	Attachments      *string    `json:"attachments"`
	Resolution       *string    `json:"resolution"`
	ResolutionDate   *time.Time `json:"resolution_date"`
}

func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&models.Defect{})

	if v := c.Query("status"); v != "" && v != "All Status" {
		q = q.Where("status = ?", v)
	}
	if v := c.Query("severity"); v != "" && v != "All Severities" {
		q = q.Where("severity = ?", v)
	}
	if v := c.Query("priority"); v != "" && v != "All Priorities" {
		q = q.Where("priority = ?", v)
	}

	var defects []models.Defect
	if err := q.Order("created_at DESC").Find(&defects).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list defects", Err: err})
		return
	}
	envelope.OK(c, defects)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.Severity == "" {
		missing = append(missing, "severity")
	}
	if req.Priority == "" {
		missing = append(missing, "priority")
	}
	if req.ReportedBy == "" {
		missing = append(missing, "reported_by")
	}
	if len(missing) > 0 {
		envelope.Fail(c, &apperrors.ValidationError{Missing: missing})
		return
	}

	var defectID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if req.TestCaseID != "" {
			var n int64
			if err := tx.Model(&models.TestCase{}).Where("test_case_id = ?", req.TestCaseID).Count(&n).Error; err != nil {
				return &apperrors.StoreError{Op: "check test case", Err: err}
			}
			if n == 0 {
				return &apperrors.ReferentialError{Resource: "test case", ID: req.TestCaseID}
			}
		}

		var err error
		defectID, err = ident.New(tx, ident.Defect)
		if err != nil {
			return &apperrors.StoreError{Op: "allocate defect id", Err: err}
		}

		defect := models.Defect{
			DefectID:         defectID,
			Title:            req.Title,
			Description:      req.Description,
			Severity:         req.Severity,
			Priority:         req.Priority,
			Status:           models.DefectOpen,
			TestCaseID:       req.TestCaseID,
			AssignedTo:       req.AssignedTo,
			ReportedBy:       req.ReportedBy,
			Environment:      req.Environment,
			StepsToReproduce: req.StepsToReproduce,
			ExpectedResult:   req.ExpectedResult,
			ActualResult:     req.ActualResult,
			Attachments:      req.Attachments,
		}
		if err := tx.Create(&defect).Error; err != nil {
			return &apperrors.StoreError{Op: "create defect", Err: err}
		}
		return nil
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Created(c, "Defect created successfully", gin.H{"defect_id": defectID})
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{"updated_at": time.Now()}
	setField(updates, "title", req.Title)
	setField(updates, "description", req.Description)
	setField(updates, "severity", req.Severity)
	setField(updates, "priority", req.Priority)
	setField(updates, "status", req.Status)
	setField(updates, "assigned_to", req.AssignedTo)
	setField(updates, "environment", req.Environment)
	setField(updates, "steps_to_reproduce", req.StepsToReproduce)
	setField(updates, "expected_result", req.ExpectedResult)
	setField(updates, "actual_result", req.ActualResult)
	setField(updates, "attachments", req.Attachments)
	setField(updates, "resolution", req.Resolution)
	if req.ResolutionDate != nil {
		updates["resolution_date"] = *req.ResolutionDate
	}

	res := h.db.Model(&models.Defect{}).Where("defect_id = ?", id).Updates(updates)
	if res.Error != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "update defect", Err: res.Error})
		return
	}
	if res.RowsAffected == 0 {
		envelope.Fail(c, &apperrors.NotFoundError{Resource: "defect", ID: id})
		return
	}

	envelope.Message(c, "Defect updated successfully")
}

func setField(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}
