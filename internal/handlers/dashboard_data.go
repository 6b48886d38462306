package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/access"
	"github.com/masterdash/masterdash/internal/dashboards"
	"github.com/masterdash/masterdash/internal/middleware"
	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// DashboardDataHandler serves scoped warehouse data for a dashboard. It is
// the only handler that reaches the analytical store, and always through the
// access gateway.
type DashboardDataHandler struct {
	gateway    *access.Gateway
	registry   *dashboards.Registry
	dashboards *services.DashboardService
	audit      *services.AuditService
}

// NewDashboardDataHandler constructs a DashboardDataHandler.
func NewDashboardDataHandler(gateway *access.Gateway, registry *dashboards.Registry, dashboardService *services.DashboardService, audit *services.AuditService) (*DashboardDataHandler, error) {
	if gateway == nil {
		return nil, errors.New("dashboard data handler: gateway is required")
	}
	if registry == nil {
		return nil, errors.New("dashboard data handler: registry is required")
	}
	if dashboardService == nil {
		return nil, errors.New("dashboard data handler: dashboard service is required")
	}
	return &DashboardDataHandler{
		gateway:    gateway,
		registry:   registry,
		dashboards: dashboardService,
		audit:      audit,
	}, nil
}

type dashboardDataResponse struct {
	Dashboard string             `json:"dashboard"`
	Rows      []map[string]any   `json:"rows"`
	Scope     *access.Scope      `json:"accessScope"`
	Meta      *dashboardDataMeta `json:"meta,omitempty"`
}

type dashboardDataMeta struct {
	RowCount int `json:"row_count"`
}

// Data runs the registered query for the slug under the caller's scope.
//
// Unknown or unregistered slugs read as not found, a missing grant as
// forbidden; neither reaches the warehouse.
func (h *DashboardDataHandler) Data(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	slug := c.Param("slug")

	query, registered := h.registry.Lookup(slug)
	if !registered {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	// The catalogue row must exist and be active regardless of role; the
	// registry alone only proves a developer wrote a query for the slug.
	if _, err := h.dashboards.GetBySlug(ctx, slug); err != nil {
		if errors.Is(err, services.ErrDashboardNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load dashboard"))
		return
	}

	result, err := h.gateway.Execute(ctx, userID, slug, query, nil)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrUnknownUser):
			response.Error(c, appErrors.ErrUnauthorized)
		case errors.Is(err, access.ErrNoAccess):
			h.logDenial(c, userID, slug)
			response.Error(c, appErrors.ErrDashboardAccessDenied)
		default:
			// Driver and SQL detail stays in server logs.
			response.Error(c, appErrors.Wrap(err, "Failed to execute dashboard query"))
		}
		return
	}

	response.Success(c, http.StatusOK, dashboardDataResponse{
		Dashboard: slug,
		Rows:      result.Rows,
		Scope:     result.Scope,
		Meta:      &dashboardDataMeta{RowCount: len(result.Rows)},
	})
}

func (h *DashboardDataHandler) logDenial(c *gin.Context, userID, slug string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), services.AuditEntry{
		UserID:    &userID,
		Action:    "dashboard.data.denied",
		Resource:  slug,
		Result:    "denied",
		IPAddress: c.ClientIP(),
	})
}
