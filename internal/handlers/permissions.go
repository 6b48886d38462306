package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// PermissionHandler exposes dashboard grant administration endpoints.
type PermissionHandler struct {
	access *services.AccessService
}

// NewPermissionHandler constructs a PermissionHandler.
func NewPermissionHandler(access *services.AccessService) (*PermissionHandler, error) {
	if access == nil {
		return nil, errors.New("permission handler: access service is required")
	}
	return &PermissionHandler{access: access}, nil
}

type grantRequest struct {
	UserID      string          `json:"user_id" validate:"required"`
	DashboardID string          `json:"dashboard_id" validate:"required"`
	Scope       json.RawMessage `json:"access_scope"`
}

type updateScopeRequest struct {
	Scope json.RawMessage `json:"access_scope"`
}

// Grant creates a dashboard access record.
func (h *PermissionHandler) Grant(c *gin.Context) {
	var req grantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	grant, err := h.access.Grant(ctx, services.GrantInput{
		UserID:      req.UserID,
		DashboardID: req.DashboardID,
		Scope:       req.Scope,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			response.Error(c, appErrors.NewBadRequest("User does not exist"))
		case errors.Is(err, services.ErrDashboardNotFound):
			response.Error(c, appErrors.NewBadRequest("Dashboard does not exist"))
		case errors.Is(err, services.ErrGrantExists):
			response.Error(c, appErrors.NewConflict("User already has access to this dashboard"))
		case errors.Is(err, services.ErrInvalidScope):
			response.Error(c, appErrors.NewBadRequest("Invalid scope descriptor"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to grant access"))
		}
		return
	}

	response.Success(c, http.StatusCreated, grant)
}

// List returns grants, optionally filtered by user or dashboard query params.
func (h *PermissionHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	grants, err := h.access.List(ctx, c.Query("user_id"), c.Query("dashboard_id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list grants"))
		return
	}

	response.Success(c, http.StatusOK, grants)
}

// Get returns a single grant by identifier.
func (h *PermissionHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	grant, err := h.access.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrGrantNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load grant"))
		return
	}

	response.Success(c, http.StatusOK, grant)
}

// UpdateScope replaces a grant's scope descriptor.
func (h *PermissionHandler) UpdateScope(c *gin.Context) {
	var req updateScopeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	grant, err := h.access.UpdateScope(ctx, c.Param("id"), req.Scope)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGrantNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrInvalidScope):
			response.Error(c, appErrors.NewBadRequest("Invalid scope descriptor"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to update scope"))
		}
		return
	}

	response.Success(c, http.StatusOK, grant)
}

// Revoke removes a grant.
func (h *PermissionHandler) Revoke(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.access.Revoke(ctx, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrGrantNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to revoke grant"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
