package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// pathUUID parses a UUID path parameter. Routes use UUIDValidator so
// this only fails on wiring mistakes.
func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("path parameter "+name+" must be a valid UUID", nil)
	}
	return id, nil
}

// pageRange reads the start/stop offset pair used by list endpoints.
func pageRange(c *gin.Context) (int, int) {
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil || start < 0 {
		start = 0
	}
	stop, err := strconv.Atoi(c.DefaultQuery("stop", "50"))
	if err != nil || stop <= start {
		stop = start + 50
	}
	return start, stop
}
