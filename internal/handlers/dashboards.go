package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/middleware"
	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// DashboardHandler exposes dashboard catalogue endpoints.
type DashboardHandler struct {
	dashboards *services.DashboardService
	users      *services.UserService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboards *services.DashboardService, users *services.UserService) (*DashboardHandler, error) {
	if dashboards == nil {
		return nil, errors.New("dashboard handler: dashboard service is required")
	}
	if users == nil {
		return nil, errors.New("dashboard handler: user service is required")
	}
	return &DashboardHandler{dashboards: dashboards, users: users}, nil
}

type createDashboardRequest struct {
	Slug        string  `json:"slug" validate:"required,max=80"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=500"`
	Icon        string  `json:"icon" validate:"max=80"`
	AreaID      *string `json:"area_id"`
}

type updateDashboardRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Icon        *string `json:"icon" validate:"omitempty,max=80"`
	AreaID      *string `json:"area_id"`
	IsActive    *bool   `json:"is_active"`
}

// Create registers a new dashboard.
func (h *DashboardHandler) Create(c *gin.Context) {
	var req createDashboardRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	dashboard, err := h.dashboards.Create(ctx, services.CreateDashboardInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		AreaID:      req.AreaID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlugTaken):
			response.Error(c, appErrors.NewConflict("Dashboard slug already in use"))
		case errors.Is(err, services.ErrAreaNotFound):
			response.Error(c, appErrors.NewBadRequest("Area does not exist"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to create dashboard"))
		}
		return
	}

	response.Success(c, http.StatusCreated, dashboard)
}

// List returns every dashboard for administration.
func (h *DashboardHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	dashboards, err := h.dashboards.List(ctx)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list dashboards"))
		return
	}

	response.Success(c, http.StatusOK, dashboards)
}

// ListMine returns the active dashboards visible to the caller, driving the
// portal navigation.
func (h *DashboardHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load profile"))
		return
	}

	dashboards, err := h.dashboards.ListForUser(ctx, user)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list dashboards"))
		return
	}

	response.Success(c, http.StatusOK, dashboards)
}

// Get returns a single dashboard by identifier.
func (h *DashboardHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	dashboard, err := h.dashboards.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrDashboardNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load dashboard"))
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}

// Update modifies dashboard metadata.
func (h *DashboardHandler) Update(c *gin.Context) {
	var req updateDashboardRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	dashboard, err := h.dashboards.Update(ctx, c.Param("id"), services.UpdateDashboardInput{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		AreaID:      req.AreaID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDashboardNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrAreaNotFound):
			response.Error(c, appErrors.NewBadRequest("Area does not exist"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to update dashboard"))
		}
		return
	}

	response.Success(c, http.StatusOK, dashboard)
}

// Delete removes a dashboard.
func (h *DashboardHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.dashboards.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrDashboardNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to delete dashboard"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
