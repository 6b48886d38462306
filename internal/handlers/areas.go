package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// AreaHandler exposes area administration endpoints.
type AreaHandler struct {
	areas *services.AreaService
}

// NewAreaHandler constructs an AreaHandler.
func NewAreaHandler(areas *services.AreaService) (*AreaHandler, error) {
	if areas == nil {
		return nil, errors.New("area handler: area service is required")
	}
	return &AreaHandler{areas: areas}, nil
}

type createAreaRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	SectorID    string `json:"sector_id" validate:"required"`
}

type updateAreaRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	SectorID    *string `json:"sector_id"`
	IsActive    *bool   `json:"is_active"`
}

// Create registers a new area under a sector.
func (h *AreaHandler) Create(c *gin.Context) {
	var req createAreaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	area, err := h.areas.Create(ctx, services.CreateAreaInput{
		Name:        req.Name,
		Description: req.Description,
		SectorID:    req.SectorID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSectorNotFound):
			response.Error(c, appErrors.NewBadRequest("Sector does not exist"))
		case errors.Is(err, services.ErrAreaNameTaken):
			response.Error(c, appErrors.NewConflict("Area name already in use within sector"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to create area"))
		}
		return
	}

	response.Success(c, http.StatusCreated, area)
}

// List returns all areas with their sectors.
func (h *AreaHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	areas, err := h.areas.List(ctx)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list areas"))
		return
	}

	response.Success(c, http.StatusOK, areas)
}

// Get returns a single area by identifier.
func (h *AreaHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	area, err := h.areas.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAreaNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load area"))
		return
	}

	response.Success(c, http.StatusOK, area)
}

// Update modifies an area.
func (h *AreaHandler) Update(c *gin.Context) {
	var req updateAreaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	area, err := h.areas.Update(ctx, c.Param("id"), services.UpdateAreaInput{
		Name:        req.Name,
		Description: req.Description,
		SectorID:    req.SectorID,
		IsActive:    req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAreaNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrSectorNotFound):
			response.Error(c, appErrors.NewBadRequest("Sector does not exist"))
		case errors.Is(err, services.ErrAreaNameTaken):
			response.Error(c, appErrors.NewConflict("Area name already in use within sector"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to update area"))
		}
		return
	}

	response.Success(c, http.StatusOK, area)
}

// Delete removes an area.
func (h *AreaHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.areas.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrAreaNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to delete area"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
