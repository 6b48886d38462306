package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/access"
	"github.com/masterdash/masterdash/internal/models"
)

var (
	// ErrGrantNotFound indicates the requested dashboard grant does not exist.
	ErrGrantNotFound = errors.New("access service: grant not found")
	// ErrGrantExists indicates the user already holds a grant for the dashboard.
	ErrGrantExists = errors.New("access service: grant already exists for user and dashboard")
	// ErrInvalidScope indicates the supplied scope descriptor is not valid JSON
	// in the expected shape.
	ErrInvalidScope = errors.New("access service: invalid scope descriptor")
)

// GrantInput captures the attributes required to grant dashboard access.
type GrantInput struct {
	UserID      string
	DashboardID string
	Scope       json.RawMessage
}

// AccessService manages dashboard access grants and their scope descriptors.
type AccessService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewAccessService constructs an AccessService instance.
func NewAccessService(db *gorm.DB, auditService *AuditService) (*AccessService, error) {
	if db == nil {
		return nil, errors.New("access service: db is required")
	}
	return &AccessService{db: db, auditService: auditService}, nil
}

// Grant creates an access record for a (user, dashboard) pair. The scope may
// be omitted, in which case the grant starts fail-closed and matches no rows
// until a scope is set.
func (s *AccessService) Grant(ctx context.Context, input GrantInput) (*models.DashboardAccess, error) {
	ctx = ensureContext(ctx)

	if input.UserID == "" {
		return nil, errors.New("access service: user id is required")
	}
	if input.DashboardID == "" {
		return nil, errors.New("access service: dashboard id is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", input.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("access service: load user: %w", err)
	}

	var dashboard models.Dashboard
	err = s.db.WithContext(ctx).First(&dashboard, "id = ?", input.DashboardID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDashboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("access service: load dashboard: %w", err)
	}

	scope, err := normaliseScope(input.Scope)
	if err != nil {
		return nil, err
	}

	grant := &models.DashboardAccess{
		UserID:      user.ID,
		DashboardID: dashboard.ID,
		Scope:       scope,
	}

	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrGrantExists
		}
		return nil, fmt.Errorf("access service: create grant: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "access.grant",
		Resource: grant.ID,
		Result:   "success",
		Metadata: map[string]any{"user_id": user.ID, "dashboard_id": dashboard.ID},
	})

	return grant, nil
}

// GetByID loads a grant with its user and dashboard.
func (s *AccessService) GetByID(ctx context.Context, id string) (*models.DashboardAccess, error) {
	ctx = ensureContext(ctx)

	var grant models.DashboardAccess
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Dashboard").
		First(&grant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("access service: get grant: %w", err)
	}
	return &grant, nil
}

// List returns all grants, optionally filtered by user or dashboard.
func (s *AccessService) List(ctx context.Context, userID, dashboardID string) ([]models.DashboardAccess, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Preload("User").
		Preload("Dashboard").
		Order("created_at DESC")

	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if dashboardID != "" {
		query = query.Where("dashboard_id = ?", dashboardID)
	}

	var grants []models.DashboardAccess
	if err := query.Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("access service: list grants: %w", err)
	}
	return grants, nil
}

// UpdateScope replaces the scope descriptor on an existing grant. Passing nil
// clears the descriptor, returning the grant to its fail-closed state.
func (s *AccessService) UpdateScope(ctx context.Context, id string, rawScope json.RawMessage) (*models.DashboardAccess, error) {
	ctx = ensureContext(ctx)

	var grant models.DashboardAccess
	err := s.db.WithContext(ctx).First(&grant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGrantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("access service: load grant: %w", err)
	}

	scope, err := normaliseScope(rawScope)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&grant).Update("scope", scope).Error; err != nil {
		return nil, fmt.Errorf("access service: update scope: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").Preload("Dashboard").First(&grant, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("access service: reload grant: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "access.update_scope",
		Resource: grant.ID,
		Result:   "success",
	})

	return &grant, nil
}

// Revoke removes a grant by identifier.
func (s *AccessService) Revoke(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var grant models.DashboardAccess
	err := s.db.WithContext(ctx).First(&grant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrGrantNotFound
	}
	if err != nil {
		return fmt.Errorf("access service: load grant: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&grant).Error; err != nil {
		return fmt.Errorf("access service: revoke grant: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "access.revoke",
		Resource: grant.ID,
		Result:   "success",
		Metadata: map[string]any{"user_id": grant.UserID, "dashboard_id": grant.DashboardID},
	})

	return nil
}

// normaliseScope validates and re-encodes a raw scope descriptor. The value
// must round-trip through the Scope type so unknown shapes are rejected at
// write time rather than degrading reads later.
func normaliseScope(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	scope, err := access.ParseScope(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}

	encoded, err := json.Marshal(scope)
	if err != nil {
		return nil, fmt.Errorf("access service: encode scope: %w", err)
	}
	return datatypes.JSON(encoded), nil
}
