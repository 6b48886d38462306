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
	// ErrSectorNotFound indicates the requested sector does not exist.
	ErrSectorNotFound = errors.New("sector service: sector not found")
	// ErrSectorNameTaken indicates another sector already uses the name.
	ErrSectorNameTaken = errors.New("sector service: sector name already in use")
)

// CreateSectorInput captures the attributes required to register a sector.
type CreateSectorInput struct {
	Name        string
	Description string
}

// UpdateSectorInput represents mutable sector fields.
type UpdateSectorInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// SectorService manages lifecycle operations for sectors.
type SectorService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewSectorService constructs a SectorService instance.
func NewSectorService(db *gorm.DB, auditService *AuditService) (*SectorService, error) {
	if db == nil {
		return nil, errors.New("sector service: db is required")
	}
	return &SectorService{db: db, auditService: auditService}, nil
}

// Create registers a new sector.
func (s *SectorService) Create(ctx context.Context, input CreateSectorInput) (*models.Sector, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("sector service: name is required")
	}

	sector := &models.Sector{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(sector).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSectorNameTaken
		}
		return nil, fmt.Errorf("sector service: create sector: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "sector.create",
		Resource: sector.ID,
		Result:   "success",
		Metadata: map[string]any{"name": name},
	})

	return sector, nil
}

// GetByID loads a sector and its areas.
func (s *SectorService) GetByID(ctx context.Context, id string) (*models.Sector, error) {
	ctx = ensureContext(ctx)

	var sector models.Sector
	err := s.db.WithContext(ctx).
		Preload("Areas").
		First(&sector, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sector service: get sector: %w", err)
	}
	return &sector, nil
}

// List returns all sectors with their areas, ordered by name.
func (s *SectorService) List(ctx context.Context) ([]models.Sector, error) {
	ctx = ensureContext(ctx)

	var sectors []models.Sector
	if err := s.db.WithContext(ctx).
		Preload("Areas", func(db *gorm.DB) *gorm.DB { return db.Order("areas.name ASC") }).
		Order("name ASC").
		Find(&sectors).Error; err != nil {
		return nil, fmt.Errorf("sector service: list sectors: %w", err)
	}
	return sectors, nil
}

// Update modifies metadata for a sector.
func (s *SectorService) Update(ctx context.Context, id string, input UpdateSectorInput) (*models.Sector, error) {
	ctx = ensureContext(ctx)

	var sector models.Sector
	err := s.db.WithContext(ctx).First(&sector, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sector service: load sector: %w", err)
	}

	updates := map[string]any{}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != sector.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return &sector, nil
	}

	if err := s.db.WithContext(ctx).Model(&sector).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSectorNameTaken
		}
		return nil, fmt.Errorf("sector service: update sector: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&sector, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("sector service: reload sector: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "sector.update",
		Resource: sector.ID,
		Result:   "success",
		Metadata: updates,
	})

	return &sector, nil
}

// Delete removes a sector. Its areas cascade away with it.
func (s *SectorService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var sector models.Sector
	err := s.db.WithContext(ctx).First(&sector, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSectorNotFound
	}
	if err != nil {
		return fmt.Errorf("sector service: load sector: %w", err)
	}

	if err := s.db.WithContext(ctx).Select("Areas").Delete(&sector).Error; err != nil {
		return fmt.Errorf("sector service: delete sector: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "sector.delete",
		Resource: sector.ID,
		Result:   "success",
	})

	return nil
}
