package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/warehouse"
	"github.com/masterdash/masterdash/pkg/response"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	db        *gorm.DB
	warehouse *warehouse.Store
	startedAt time.Time
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB, wh *warehouse.Store) *HealthHandler {
	return &HealthHandler{db: db, warehouse: wh, startedAt: time.Now()}
}

// Health reports liveness plus dependency status. The endpoint stays 200 as
// long as the process serves; dependency state is informational.
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	}

	if h.db != nil {
		dbStatus := "ok"
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbStatus = "unreachable"
		}
		status["database"] = dbStatus
	}

	if h.warehouse != nil {
		whStatus := "ok"
		if err := h.warehouse.Ping(c.Request.Context()); err != nil {
			whStatus = "unreachable"
		}
		status["warehouse"] = whStatus
	}

	response.Success(c, http.StatusOK, status)
}
