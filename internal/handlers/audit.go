package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// AuditHandler exposes audit log queries for administrators.
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(audit *services.AuditService) (*AuditHandler, error) {
	if audit == nil {
		return nil, errors.New("audit handler: audit service is required")
	}
	return &AuditHandler{audit: audit}, nil
}

// List returns paginated audit logs, filterable via query parameters.
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	filters := services.AuditFilters{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Result:   c.Query("result"),
		Resource: c.Query("resource"),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("since must be RFC3339"))
			return
		}
		filters.Since = &t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("until must be RFC3339"))
			return
		}
		filters.Until = &t
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	logs, total, err := h.audit.List(ctx, services.AuditListOptions{
		Page:     page,
		PageSize: perPage,
		Filters:  filters,
	})
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list audit logs"))
		return
	}

	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	})
}
