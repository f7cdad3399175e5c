// Package requirement serves the requirement catalog and the traceability
// matrix mapping each requirement to the test cases covering it.
package requirement

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qaforge/qatrack/pkg/api/envelope"
	"github.com/qaforge/qatrack/pkg/apperrors"
	"github.com/qaforge/qatrack/pkg/models"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) List(c *gin.Context) {
	var requirements []models.Requirement
	if err := h.db.Order("requirement_id").Find(&requirements).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list requirements", Err: err})
		return
	}
	envelope.OK(c, requirements)
}

// GetTraceabilityMatrix returns one entry per requirement, including
// requirements no test case covers; those surface as coverage gaps with
// an empty covering set.
func (h *Handler) GetTraceabilityMatrix(c *gin.Context) {
	var requirements []models.Requirement
	if err := h.db.Order("requirement_id").Find(&requirements).Error; err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list requirements", Err: err})
		return
	}

	type linkRow struct {
		RequirementID string
		TestCaseID    string
	}
	var links []linkRow
	err := h.db.Table("test_case_requirements").
		Joins("JOIN test_cases ON test_cases.test_case_id = test_case_requirements.test_case_id").
		Select("test_case_requirements.requirement_id, test_case_requirements.test_case_id").
		Order("test_case_requirements.test_case_id").
		Scan(&links).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "fetch requirement links", Err: err})
		return
	}

	covering := make(map[string][]string)
	for _, link := range links {
		covering[link.RequirementID] = append(covering[link.RequirementID], link.TestCaseID)
	}

	matrix := make([]models.RTMEntry, 0, len(requirements))
	for _, req := range requirements {
		testCases := covering[req.RequirementID]
		if testCases == nil {
			testCases = []string{}
		}
		matrix = append(matrix, models.RTMEntry{
			RequirementID:    req.RequirementID,
			RequirementTitle: req.Title,
			Priority:         req.Priority,
			TestCases:        testCases,
			TestCaseCount:    len(testCases),
		})
	}

	envelope.OK(c, matrix)
}
