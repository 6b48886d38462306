package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/services"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// UserHandler exposes user administration endpoints.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *services.UserService) (*UserHandler, error) {
	if users == nil {
		return nil, errors.New("user handler: user service is required")
	}
	return &UserHandler{users: users}, nil
}

type createUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required,max=120"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin user"`
	SectorID *string `json:"sector_id"`
	AreaID   *string `json:"area_id"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin user"`
	SectorID *string `json:"sector_id"`
	AreaID   *string `json:"area_id"`
}

// Create registers a new user account.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.Create(ctx, services.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		SectorID: req.SectorID,
		AreaID:   req.AreaID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			response.Error(c, appErrors.NewConflict("Email already in use"))
		case errors.Is(err, services.ErrSectorNotFound):
			response.Error(c, appErrors.NewBadRequest("Sector does not exist"))
		case errors.Is(err, services.ErrAreaNotFound):
			response.Error(c, appErrors.NewBadRequest("Area does not exist"))
		case errors.Is(err, services.ErrAreaSectorMismatch):
			response.Error(c, appErrors.NewBadRequest("Area does not belong to sector"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to create user"))
		}
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// List returns all user accounts.
func (h *UserHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to list users"))
		return
	}

	response.Success(c, http.StatusOK, users)
}

// Get returns a single user by identifier.
func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to load user"))
		return
	}

	response.Success(c, http.StatusOK, user)
}

// Update modifies a user account.
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.Update(ctx, c.Param("id"), services.UpdateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		SectorID: req.SectorID,
		AreaID:   req.AreaID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrEmailTaken):
			response.Error(c, appErrors.NewConflict("Email already in use"))
		case errors.Is(err, services.ErrSectorNotFound):
			response.Error(c, appErrors.NewBadRequest("Sector does not exist"))
		case errors.Is(err, services.ErrAreaNotFound):
			response.Error(c, appErrors.NewBadRequest("Area does not exist"))
		case errors.Is(err, services.ErrAreaSectorMismatch):
			response.Error(c, appErrors.NewBadRequest("Area does not belong to sector"))
		default:
			response.Error(c, appErrors.Wrap(err, "Failed to update user"))
		}
		return
	}

	response.Success(c, http.StatusOK, user)
}

// Delete removes a user account.
func (h *UserHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "Failed to delete user"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
