package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/cache"
)

// HealthHandler reports service health for load balancers.
type HealthHandler struct {
	db    *sqlx.DB
	store cache.Store
}

func NewHealthHandler(db *sqlx.DB, store cache.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health GET /health
//
// The cache is advisory, so a broken cache degrades the report but does
// not mark the service unhealthy.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	if result := h.store.Get(ctx, "health:probe"); result.Kind == cache.Unavailable {
		checks["cache"] = "degraded"
	} else {
		checks["cache"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
