// Package envelope renders the response convention shared by every
// endpoint: {"success": true, "data": ...} on success and
// {"success": false, "error": ...} on failure.
package envelope

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qaforge/qatrack/pkg/apperrors"
)

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message, "data": data})
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// Fail maps the error taxonomy onto HTTP statuses: validation and
// referential failures are the caller's to fix, missing ids are 404,
// anything else is a store-level failure.
func Fail(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		Error(c, http.StatusBadRequest, err.Error())
	case apperrors.IsReferential(err):
		Error(c, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		Error(c, http.StatusNotFound, err.Error())
	default:
		Error(c, http.StatusInternalServerError, err.Error())
	}
}
