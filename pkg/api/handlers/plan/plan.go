// Package plan implements test plan listing, creation, and sparse-patch
// updates. The rollup counters are written by the execution recorder, not
// here; a patch may only rescope total_test_cases.
package plan

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
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	AssignedTo  string `json:"assigned_to"`
}

type UpdateRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Industry       *string `json:"industry"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	Status         *string `json:"status"`
	AssignedTo     *string `json:"assigned_to"`
	TotalTestCases *int    `json:"total_test_cases"`
}

func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&models.TestPlan{})

	if v := c.Query("industry"); v != "" && v != "All Industries" {
		q = q.Where("industry = ?", v)
	}
	if v := c.Query("status"); v != "" && v != "All Status" {
		q = q.Where("status = ?", v)
	}

	var plans []models.TestPlan
	if err := q.Order("created_at DESC").Find(&plans).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list test plans", Err: err})
		return
	}
	envelope.OK(c, plans)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Industry == "" {
		missing = append(missing, "industry")
	}
	if len(missing) > 0 {
		envelope.Fail(c, &apperrors.ValidationError{Missing: missing})
		return
	}

	var planID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		planID, err = ident.New(tx, ident.TestPlan)
		if err != nil {
			return &apperrors.StoreError{Op: "allocate plan id", Err: err}
		}

		plan := models.TestPlan{
			PlanID:      planID,
			Name:        req.Name,
			Description: req.Description,
			Industry:    req.Industry,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Status:      "Planning",
			AssignedTo:  req.AssignedTo,
		}
		if err := tx.Create(&plan).Error; err != nil {
			return &apperrors.StoreError{Op: "create test plan", Err: err}
		}
		return nil
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Created(c, "Test plan created successfully", gin.H{"plan_id": planID})
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Industry != nil {
		updates["industry"] = *req.Industry
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}
	if req.TotalTestCases != nil {
		updates["total_test_cases"] = *req.TotalTestCases
	}

	res := h.db.Model(&models.TestPlan{}).Where("plan_id = ?", id).Updates(updates)
	if res.Error != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "update test plan", Err: res.Error})
		return
	}
	if res.RowsAffected == 0 {
		envelope.Fail(c, &apperrors.NotFoundError{Resource: "test plan", ID: id})
		return
	}

	envelope.Message(c, "Test plan updated successfully")
}
