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
	// ErrDashboardNotFound indicates the requested dashboard does not exist.
	ErrDashboardNotFound = errors.New("dashboard service: dashboard not found")
	// ErrSlugTaken indicates another dashboard already uses the slug.
	ErrSlugTaken = errors.New("dashboard service: slug already in use")
)

// CreateDashboardInput captures the attributes required to register a dashboard.
type CreateDashboardInput struct {
	Slug        string
	Title       string
	Description string
	Icon        string
	AreaID      *string
}

// UpdateDashboardInput represents mutable dashboard fields.
type UpdateDashboardInput struct {
	Title       *string
	Description *string
	Icon        *string
	AreaID      *string
	IsActive    *bool
}

// DashboardService manages the dashboard catalogue.
type DashboardService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(db *gorm.DB, auditService *AuditService) (*DashboardService, error) {
	if db == nil {
		return nil, errors.New("dashboard service: db is required")
	}
	return &DashboardService{db: db, auditService: auditService}, nil
}

// Create registers a new dashboard.
func (s *DashboardService) Create(ctx context.Context, input CreateDashboardInput) (*models.Dashboard, error) {
	ctx = ensureContext(ctx)

	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, errors.New("dashboard service: slug is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("dashboard service: title is required")
	}

	var areaID *string
	if input.AreaID != nil && strings.TrimSpace(*input.AreaID) != "" {
		trimmed := strings.TrimSpace(*input.AreaID)
		var area models.Area
		err := s.db.WithContext(ctx).First(&area, "id = ?", trimmed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAreaNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("dashboard service: load area: %w", err)
		}
		areaID = &area.ID
	}

	dashboard := &models.Dashboard{
		Slug:        slug,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Icon:        strings.TrimSpace(input.Icon),
		AreaID:      areaID,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(dashboard).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("dashboard service: create dashboard: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "dashboard.create",
		Resource: dashboard.ID,
		Result:   "success",
		Metadata: map[string]any{"slug": slug},
	})

	return dashboard, nil
}

// GetByID loads a dashboard with its area and sector.
func (s *DashboardService) GetByID(ctx context.Context, id string) (*models.Dashboard, error) {
	ctx = ensureContext(ctx)

	var dashboard models.Dashboard
	err := s.db.WithContext(ctx).
		Preload("Area").
		Preload("Area.Sector").
		First(&dashboard, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDashboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard service: get dashboard: %w", err)
	}
	return &dashboard, nil
}

// GetBySlug loads an active dashboard by its stable external key.
func (s *DashboardService) GetBySlug(ctx context.Context, slug string) (*models.Dashboard, error) {
	ctx = ensureContext(ctx)

	var dashboard models.Dashboard
	err := s.db.WithContext(ctx).
		Preload("Area").
		First(&dashboard, "slug = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(slug)), true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDashboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard service: get dashboard by slug: %w", err)
	}
	return &dashboard, nil
}

// List returns all dashboards with relations, ordered by title.
func (s *DashboardService) List(ctx context.Context) ([]models.Dashboard, error) {
	ctx = ensureContext(ctx)

	var dashboards []models.Dashboard
	if err := s.db.WithContext(ctx).
		Preload("Area").
		Preload("Area.Sector").
		Order("title ASC").
		Find(&dashboards).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: list dashboards: %w", err)
	}
	return dashboards, nil
}

// ListForUser returns the active dashboards visible to a user: every one for
// admins, granted ones for everybody else.
func (s *DashboardService) ListForUser(ctx context.Context, user *models.User) ([]models.Dashboard, error) {
	ctx = ensureContext(ctx)

	if user == nil {
		return nil, errors.New("dashboard service: user is required")
	}

	query := s.db.WithContext(ctx).
		Preload("Area").
		Preload("Area.Sector").
		Where("is_active = ?", true).
		Order("title ASC")

	if !user.IsAdmin() {
		query = query.
			Joins("JOIN dashboard_accesses ON dashboard_accesses.dashboard_id = dashboards.id").
			Where("dashboard_accesses.user_id = ?", user.ID)
	}

	var dashboards []models.Dashboard
	if err := query.Find(&dashboards).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: list dashboards for user: %w", err)
	}
	return dashboards, nil
}

// Update modifies dashboard metadata. The slug is immutable once created:
// registered base queries key off it.
func (s *DashboardService) Update(ctx context.Context, id string, input UpdateDashboardInput) (*models.Dashboard, error) {
	ctx = ensureContext(ctx)

	var dashboard models.Dashboard
	err := s.db.WithContext(ctx).First(&dashboard, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDashboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard service: load dashboard: %w", err)
	}

	updates := map[string]any{}

	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Icon != nil {
		updates["icon"] = strings.TrimSpace(*input.Icon)
	}
	if input.AreaID != nil {
		trimmed := strings.TrimSpace(*input.AreaID)
		if trimmed == "" {
			updates["area_id"] = nil
		} else {
			var area models.Area
			err := s.db.WithContext(ctx).First(&area, "id = ?", trimmed).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAreaNotFound
			}
			if err != nil {
				return nil, fmt.Errorf("dashboard service: load area: %w", err)
			}
			updates["area_id"] = area.ID
		}
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) == 0 {
		return &dashboard, nil
	}

	if err := s.db.WithContext(ctx).Model(&dashboard).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: update dashboard: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Area").First(&dashboard, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("dashboard service: reload dashboard: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "dashboard.update",
		Resource: dashboard.ID,
		Result:   "success",
		Metadata: updates,
	})

	return &dashboard, nil
}

// Delete removes a dashboard; grants cascade away with it.
func (s *DashboardService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var dashboard models.Dashboard
	err := s.db.WithContext(ctx).First(&dashboard, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDashboardNotFound
	}
	if err != nil {
		return fmt.Errorf("dashboard service: load dashboard: %w", err)
	}

	if err := s.db.WithContext(ctx).Select("Access").Delete(&dashboard).Error; err != nil {
		return fmt.Errorf("dashboard service: delete dashboard: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "dashboard.delete",
		Resource: dashboard.ID,
		Result:   "success",
	})

	return nil
}
