package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/pkg/crypto"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user service: user not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("user service: email already in use")
	// ErrAreaSectorMismatch indicates the chosen area does not belong to the chosen sector.
	ErrAreaSectorMismatch = errors.New("user service: area does not belong to sector")
	// ErrPasswordMismatch indicates the supplied current password is wrong.
	ErrPasswordMismatch = errors.New("user service: current password does not match")
)

// CreateUserInput captures the attributes required to register a user.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	SectorID *string
	AreaID   *string
}

// UpdateUserInput represents mutable user fields. A nil pointer leaves the
// field untouched; a pointer to the empty string clears it where applicable.
type UpdateUserInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *string
	SectorID *string
	AreaID   *string
}

// UserService manages portal accounts.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, auditService *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, auditService: auditService}, nil
}

// Create registers a new user with a hashed password. When an area is given
// without a sector, the area's sector is adopted; when both are given they
// must agree.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("user service: email is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("user service: name is required")
	}
	if len(input.Password) < 6 {
		return nil, errors.New("user service: password must be at least 6 characters")
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, fmt.Errorf("user service: unknown role %q", role)
	}

	sectorID, areaID, err := s.resolveMembership(ctx, input.SectorID, input.AreaID)
	if err != nil {
		return nil, err
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Name:     name,
		Password: hashed,
		Role:     role,
		SectorID: sectorID,
		AreaID:   areaID,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "user.create",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"email": email, "role": role},
	})

	return user, nil
}

// GetByID loads a user with organisational relations.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Sector").
		Preload("Area").
		First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// GetByEmail loads a user by email for credential checks.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user by email: %w", err)
	}
	return &user, nil
}

// List returns all users ordered by creation date descending.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).
		Preload("Sector").
		Preload("Area").
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// Update modifies account fields, rehashing the password when changed.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	updates := map[string]any{}

	if input.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*input.Email)); email != "" && email != user.Email {
			updates["email"] = email
		}
	}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, errors.New("user service: password must be at least 6 characters")
		}
		hashed, err := crypto.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("user service: hash password: %w", err)
		}
		updates["password"] = hashed
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if role != models.RoleAdmin && role != models.RoleUser {
			return nil, fmt.Errorf("user service: unknown role %q", role)
		}
		updates["role"] = role
	}

	if input.SectorID != nil || input.AreaID != nil {
		sectorPtr := input.SectorID
		if sectorPtr == nil {
			sectorPtr = user.SectorID
		}
		areaPtr := input.AreaID
		if areaPtr == nil {
			areaPtr = user.AreaID
		}
		sectorID, areaID, err := s.resolveMembership(ctx, sectorPtr, areaPtr)
		if err != nil {
			return nil, err
		}
		updates["sector_id"] = sectorID
		updates["area_id"] = areaID
	}

	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: update user: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Sector").Preload("Area").First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("user service: reload user: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "user.update",
		Resource: user.ID,
		Result:   "success",
	})

	return &user, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return ErrPasswordMismatch
	}

	if len(newPassword) < 6 {
		return errors.New("user service: password must be at least 6 characters")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "user.change_password",
		Resource: user.ID,
		Result:   "success",
	})

	return nil
}

// Delete removes a user; dashboard grants cascade away with the account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("user service: load user: %w", err)
	}

	if err := s.db.WithContext(ctx).Select("DashboardAccess").Delete(&user).Error; err != nil {
		return fmt.Errorf("user service: delete user: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "user.delete",
		Resource: user.ID,
		Result:   "success",
	})

	return nil
}

// resolveMembership validates the sector/area pair. An area without a sector
// adopts the area's sector; an area under a different sector is rejected.
func (s *UserService) resolveMembership(ctx context.Context, sectorID, areaID *string) (*string, *string, error) {
	var (
		resolvedSector *string
		resolvedArea   *string
	)

	if sectorID != nil && strings.TrimSpace(*sectorID) != "" {
		trimmed := strings.TrimSpace(*sectorID)
		var sector models.Sector
		err := s.db.WithContext(ctx).First(&sector, "id = ?", trimmed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSectorNotFound
		}
		if err != nil {
			return nil, nil, fmt.Errorf("user service: load sector: %w", err)
		}
		resolvedSector = &sector.ID
	}

	if areaID != nil && strings.TrimSpace(*areaID) != "" {
		trimmed := strings.TrimSpace(*areaID)
		var area models.Area
		err := s.db.WithContext(ctx).First(&area, "id = ?", trimmed).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAreaNotFound
		}
		if err != nil {
			return nil, nil, fmt.Errorf("user service: load area: %w", err)
		}
		if resolvedSector != nil && area.SectorID != *resolvedSector {
			return nil, nil, ErrAreaSectorMismatch
		}
		resolvedArea = &area.ID
		if resolvedSector == nil {
			resolvedSector = &area.SectorID
		}
	}

	return resolvedSector, resolvedArea, nil
}
