// Package refdata serves the read-mostly reference entities: the QA team
// roster and the test environments.
package refdata

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

func (h *Handler) GetTeamMembers(c *gin.Context) {
	var members []models.TeamMember
	err := h.db.Where("status = ?", "Active").Order("name").Find(&members).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list team members", Err: err})
		return
	}
	envelope.OK(c, members)
}

func (h *Handler) GetEnvironments(c *gin.Context) {
	var environments []models.Environment
	err := h.db.Order("name").Find(&environments).Error
	if err != nil {
		envelope.Fail(c, &apperrors.StoreError{Op: "list environments", Err: err})
		return
	}
	envelope.OK(c, environments)
}
