package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/models"
)

var (
	// ErrAreaNotFound indicates the requested area does not exist.
	ErrAreaNotFound = errors.New("area service: area not found")
	// ErrAreaNameTaken indicates the sector already contains an area with the name.
	ErrAreaNameTaken = errors.New("area service: area name already in use within sector")
)

// CreateAreaInput captures the attributes required to register an area.
type CreateAreaInput struct {
	Name        string
	Description string
	SectorID    string
}

// UpdateAreaInput represents mutable area fields.
type UpdateAreaInput struct {
	Name        *string
	Description *string
	SectorID    *string
	IsActive    *bool
}

// AreaService manages lifecycle operations for areas.
type AreaService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewAreaService constructs an AreaService instance.
func NewAreaService(db *gorm.DB, auditService *AuditService) (*AreaService, error) {
	if db == nil {
		return nil, errors.New("area service: db is required")
	}
	return &AreaService{db: db, auditService: auditService}, nil
}

// Create registers a new area under an existing sector.
func (s *AreaService) Create(ctx context.Context, input CreateAreaInput) (*models.Area, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("area service: name is required")
	}

	sectorID := strings.TrimSpace(input.SectorID)
	if sectorID == "" {
		return nil, errors.New("area service: sector id is required")
	}

	var sector models.Sector
	err := s.db.WithContext(ctx).First(&sector, "id = ?", sectorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("area service: load sector: %w", err)
	}

	area := &models.Area{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		SectorID:    sector.ID,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAreaNameTaken
		}
		return nil, fmt.Errorf("area service: create area: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "area.create",
		Resource: area.ID,
		Result:   "success",
		Metadata: map[string]any{"name": name, "sector_id": sector.ID},
	})

	return area, nil
}

// GetByID loads an area with its sector.
func (s *AreaService) GetByID(ctx context.Context, id string) (*models.Area, error) {
	ctx = ensureContext(ctx)

	var area models.Area
	err := s.db.WithContext(ctx).
		Preload("Sector").
		First(&area, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("area service: get area: %w", err)
	}
	return &area, nil
}

// List returns all areas with their sectors, ordered by name.
func (s *AreaService) List(ctx context.Context) ([]models.Area, error) {
	ctx = ensureContext(ctx)

	var areas []models.Area
	if err := s.db.WithContext(ctx).
		Preload("Sector").
		Order("name ASC").
		Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("area service: list areas: %w", err)
	}
	return areas, nil
}

// Update modifies metadata for an area, revalidating sector membership when moved.
func (s *AreaService) Update(ctx context.Context, id string, input UpdateAreaInput) (*models.Area, error) {
	ctx = ensureContext(ctx)

	var area models.Area
	err := s.db.WithContext(ctx).First(&area, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("area service: load area: %w", err)
	}

	updates := map[string]any{}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != area.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.SectorID != nil {
		sectorID := strings.TrimSpace(*input.SectorID)
		if sectorID != "" && sectorID != area.SectorID {
			var sector models.Sector
			err := s.db.WithContext(ctx).First(&sector, "id = ?", sectorID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSectorNotFound
			}
			if err != nil {
				return nil, fmt.Errorf("area service: load sector: %w", err)
			}
			updates["sector_id"] = sector.ID
		}
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return &area, nil
	}

	if err := s.db.WithContext(ctx).Model(&area).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAreaNameTaken
		}
		return nil, fmt.Errorf("area service: update area: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Sector").First(&area, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("area service: reload area: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "area.update",
		Resource: area.ID,
		Result:   "success",
		Metadata: updates,
	})

	return &area, nil
}

// Delete removes an area by identifier.
func (s *AreaService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var area models.Area
	err := s.db.WithContext(ctx).First(&area, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAreaNotFound
	}
	if err != nil {
		return fmt.Errorf("area service: load area: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&area).Error; err != nil {
		return fmt.Errorf("area service: delete area: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "area.delete",
		Resource: area.ID,
		Result:   "success",
	})

	return nil
}
