package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// SectorHandler exposes sector administration endpoints.
type SectorHandler struct {
	sectors *services.SectorService
}

// NewSectorHandler constructs a SectorHandler.
func NewSectorHandler(sectors *services.SectorService) (*SectorHandler, error) {
	if sectors == nil {
		return nil, errors.New("sector handler: sector service is required")
	}
	return &SectorHandler{sectors: sectors}, nil
}

type createSectorRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

type updateSectorRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// Create registers a new sector.
func (h *SectorHandler) Create(c *gin.Context) {
	var req createSectorRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sector, err := h.sectors.Create(ctx, services.CreateSectorInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, services.ErrSectorNameTaken) {
			response.Error(c, appErrors.NewConflict("Sector name already in use"))
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to create sector"))
		return
	}

	response.Success(c, http.StatusCreated, sector)
}

// List returns all sectors with their areas.
func (h *SectorHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sectors, err := h.sectors.List(ctx)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list sectors"))
		return
	}

	response.Success(c, http.StatusOK, sectors)
}

// Get returns a single sector by identifier.
func (h *SectorHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	sector, err := h.sectors.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSectorNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load sector"))
		return
	}

	response.Success(c, http.StatusOK, sector)
}

// Update modifies a sector.
func (h *SectorHandler) Update(c *gin.Context) {
	var req updateSectorRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sector, err := h.sectors.Update(ctx, c.Param("id"), services.UpdateSectorInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSectorNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrSectorNameTaken):
			response.Error(c, appErrors.NewConflict("Sector name already in use"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to update sector"))
		}
		return
	}

	response.Success(c, http.StatusOK, sector)
}

// Delete removes a sector and its areas.
func (h *SectorHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.sectors.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrSectorNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to delete sector"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
