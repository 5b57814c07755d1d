package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// UUIDValidator rejects requests whose named path parameter is not a
// valid UUID before the handler runs.
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if _, err := uuid.Parse(idStr); err != nil {
			Abort(c, apperror.Validation("path parameter "+paramName+" must be a valid UUID", nil))
			return
		}
		c.Next()
	}
}
