// Package testcase implements the test case command and query surface:
// filtered listing, composite detail lookup, and the transactional writes
// covering the case row, its ordered steps, and its requirement links.
package testcase

import (
	"errors"
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

type StepInput struct {
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
}

type CreateRequest struct {
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	Industry              string      `json:"industry"`
	TestType              string      `json:"test_type"`
	Priority              string      `json:"priority"`
	AutomationStatus      string      `json:"automation_status"`
	AssignedTo            string      `json:"assigned_to"`
	Preconditions         string      `json:"preconditions"`
	TestData              string      `json:"test_data"`
	ExpectedExecutionTime string      `json:"expected_execution_time"`
	Tags                  string      `json:"tags"`
	ReferenceLinks        string      `json:"reference_links"`
	CreatedBy             string      `json:"created_by"`
	Steps                 []StepInput `json:"steps"`
	Requirements          []string    `json:"requirements"`
}

// UpdateRequest is a sparse patch: nil fields are left untouched. Steps
// and Requirements, when present, replace the whole sequence or link set.
// The external id and creation metadata are not patchable.
type UpdateRequest struct {
	Title                 *string      `json:"title"`
	Description           *string      `json:"description"`
	Industry              *string      `json:"industry"`
	TestType              *string      `json:"test_type"`
	Priority              *string      `json:"priority"`
	AutomationStatus      *string      `json:"automation_status"`
	Status                *string      `json:"status"`
	AssignedTo            *string      `json:"assigned_to"`
	Preconditions         *string      `json:"preconditions"`
	TestData              *string      `json:"test_data"`
	ExpectedExecutionTime *string      `json:"expected_execution_time"`
	Tags                  *string      `json:"tags"`
	ReferenceLinks        *string      `json:"reference_links"`
	Steps                 *[]StepInput `json:"steps"`
	Requirements          *[]string    `json:"requirements"`
}

func (h *Handler) List(c *gin.Context) {
	q := h.db.Model(&models.TestCase{})

	if v := c.Query("industry"); v != "" && v != "All Industries" {
		q = q.Where("industry = ?", v)
	}
	if v := c.Query("test_type"); v != "" && v != "All Types" {
		q = q.Where("test_type = ?", v)
	}
	if v := c.Query("priority"); v != "" && v != "All Priorities" {
		q = q.Where("priority = ?", v)
	}
	if v := c.Query("status"); v != "" && v != "All Status" {
		q = q.Where("status = ?", v)
	}
	if s := c.Query("search"); s != "" {
		like := "%" + s + "%"
		q = q.Where("test_case_id LIKE ? OR title LIKE ? OR tags LIKE ?", like, like, like)
	}

	var testCases []models.TestCase
	if err := q.Order("created_at DESC").Find(&testCases).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list test cases", Err: err})
		return
	}
	envelope.OK(c, testCases)
}

// Get assembles the composite detail view: the case row, its steps in
// step order, and the resolved requirement rows (not just ids).
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")

	var testCase models.TestCase
	err := h.db.Where("test_case_id = ?", id).First(&testCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		envelope.Fail(c, &apperrors.NotFoundError{Resource: "test case", ID: id})
		return
	}
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "fetch test case", Err: err})
		return
	}

	steps := []models.TestStep{}
	if err := h.db.Where("test_case_id = ?", id).Order("step_number").Find(&steps).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "fetch test steps", Err: err})
		return
	}

	requirements := []models.Requirement{}
	err = h.db.Table("requirements").
		Joins("JOIN test_case_requirements ON test_case_requirements.requirement_id = requirements.requirement_id").
		Where("test_case_requirements.test_case_id = ?", id).
		Select("requirements.*").
		Find(&requirements).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "fetch linked requirements", Err: err})
		return
	}

	envelope.OK(c, models.TestCaseDetail{
		TestCase:     testCase,
		Steps:        steps,
		Requirements: requirements,
	})
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
	if req.Industry == "" {
		missing = append(missing, "industry")
	}
	if req.TestType == "" {
		missing = append(missing, "test_type")
	}
	if req.Priority == "" {
		missing = append(missing, "priority")
	}
	if len(missing) > 0 {
		envelope.Fail(c, &apperrors.ValidationError{Missing: missing})
		return
	}

	automationStatus := req.AutomationStatus
	if automationStatus == "" {
		automationStatus = "Manual"
	}

	var testCaseID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		testCaseID, err = ident.New(tx, ident.TestCase)
		if err != nil {
			return &apperrors.StoreError{Op: "allocate test case id", Err: err}
		}

		testCase := models.TestCase{
			TestCaseID:            testCaseID,
			Title:                 req.Title,
			Description:           req.Description,
			Industry:              req.Industry,
			TestType:              req.TestType,
			Priority:              req.Priority,
			AutomationStatus:      automationStatus,
			Status:                "Draft",
			AssignedTo:            req.AssignedTo,
			Preconditions:         req.Preconditions,
			TestData:              req.TestData,
			ExpectedExecutionTime: req.ExpectedExecutionTime,
			Tags:                  req.Tags,
			ReferenceLinks:        req.ReferenceLinks,
			CreatedBy:             req.CreatedBy,
		}
		if err := tx.Create(&testCase).Error; err != nil {
			return &apperrors.StoreError{Op: "create test case", Err: err}
		}

		if err := insertSteps(tx, testCaseID, req.Steps); err != nil {
			return err
		}
		return insertRequirementLinks(tx, testCaseID, req.Requirements)
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Created(c, "Test case created successfully", gin.H{"test_case_id": testCaseID})
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": time.Now()}
		setField(updates, "title", req.Title)
		setField(updates, "description", req.Description)
		setField(updates, "industry", req.Industry)
		setField(updates, "test_type", req.TestType)
		setField(updates, "priority", req.Priority)
		setField(updates, "automation_status", req.AutomationStatus)
		setField(updates, "status", req.Status)
		setField(updates, "assigned_to", req.AssignedTo)
		setField(updates, "preconditions", req.Preconditions)
		setField(updates, "test_data", req.TestData)
		setField(updates, "expected_execution_time", req.ExpectedExecutionTime)
		setField(updates, "tags", req.Tags)
		setField(updates, "reference_links", req.ReferenceLinks)

		res := tx.Model(&models.TestCase{}).Where("test_case_id = ?", id).Updates(updates)
		if res.Error != nil {
			return &apperrors.StoreError{Op: "update test case", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &apperrors.NotFoundError{Resource: "test case", ID: id}
		}

		if req.Steps != nil {
			if err := tx.Where("test_case_id = ?", id).Delete(&models.TestStep{}).Error; err != nil {
				return &apperrors.StoreError{Op: "clear test steps", Err: err}
			}
			if err := insertSteps(tx, id, *req.Steps); err != nil {
				return err
			}
		}

		if req.Requirements != nil {
			if err := tx.Where("test_case_id = ?", id).Delete(&models.TestCaseRequirement{}).Error; err != nil {
				return &apperrors.StoreError{Op: "clear requirement links", Err: err}
			}
			if err := insertRequirementLinks(tx, id, *req.Requirements); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Message(c, "Test case updated successfully")
}

// Delete cascades over the dependent rows first so referential integrity
// holds at every point inside the transaction.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_case_id = ?", id).Delete(&models.TestStep{}).Error; err != nil {
			return &apperrors.StoreError{Op: "delete test steps", Err: err}
		}
		if err := tx.Where("test_case_id = ?", id).Delete(&models.TestCaseRequirement{}).Error; err != nil {
			return &apperrors.StoreError{Op: "delete requirement links", Err: err}
		}
		if err := tx.Where("test_case_id = ?", id).Delete(&models.TestCase{}).Error; err != nil {
			return &apperrors.StoreError{Op: "delete test case", Err: err}
		}
		return nil
	})
	if err != nil {
		envelope.Fail(c, err)
		return
	}

	envelope.Message(c, "Test case deleted successfully")
}

// insertSteps writes the sequence renumbered from 1 in input order.
func insertSteps(tx *gorm.DB, testCaseID string, steps []StepInput) error {
	for i, step := range steps {
		row := models.TestStep{
			TestCaseID:     testCaseID,
			StepNumber:     i + 1,
			Action:         step.Action,
			ExpectedResult: step.ExpectedResult,
		}
		if err := tx.Create(&row).Error; err != nil {
			return &apperrors.StoreError{Op: "create test step", Err: err}
		}
	}
	return nil
}

func insertRequirementLinks(tx *gorm.DB, testCaseID string, requirementIDs []string) error {
	for _, reqID := range requirementIDs {
		var n int64
		if err := tx.Model(&models.Requirement{}).Where("requirement_id = ?", reqID).Count(&n).Error; err != nil {
			return &apperrors.StoreError{Op: "check requirement", Err: err}
		}
		if n == 0 {
			return &apperrors.ReferentialError{Resource: "requirement", ID: reqID}
		}
		link := models.TestCaseRequirement{TestCaseID: testCaseID, RequirementID: reqID}
		if err := tx.Create(&link).Error; err != nil {
			return &apperrors.StoreError{Op: "create requirement link", Err: err}
		}
	}
	return nil
}

func setField(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}
