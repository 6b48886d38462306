package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/masterdash/masterdash/internal/auth"
	"github.com/masterdash/masterdash/internal/middleware"
	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/internal/services"
	"github.com/masterdash/masterdash/pkg/crypto"
	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/metrics"
	"github.com/masterdash/masterdash/pkg/response"
)

// AuthHandler exposes login and session endpoints.
type AuthHandler struct {
	users *services.UserService
	audit *services.AuditService
	jwt   *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, audit *services.AuditService, jwt *iauth.JWTService) (*AuthHandler, error) {
	if users == nil {
		return nil, errors.New("auth handler: user service is required")
	}
	if jwt == nil {
		return nil, errors.New("auth handler: jwt service is required")
	}
	return &AuthHandler{users: users, audit: audit, jwt: jwt}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// Login verifies credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.logAttempt(c, nil, "failure")
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	if !crypto.VerifyPassword(user.Password, req.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.logAttempt(c, &user.ID, "failure")
		response.Error(c, appErrors.ErrInvalidCredentials)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "Failed to issue token"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.logAttempt(c, &user.ID, "success")

	response.Success(c, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
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

	response.Success(c, http.StatusOK, user)
}

// ChangePassword updates the authenticated user's own password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.users.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrPasswordMismatch):
		response.Error(c, appErrors.NewBadRequest("Current password does not match"))
	case errors.Is(err, services.ErrUserNotFound):
		response.Error(c, appErrors.ErrUnauthorized)
	case err != nil:
		response.Error(c, appErrors.Wrap(err, "Failed to change password"))
	default:
		response.Success(c, http.StatusOK, gin.H{"changed": true})
	}
}

func (h *AuthHandler) logAttempt(c *gin.Context, userID *string, result string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), services.AuditEntry{
		UserID:    userID,
		Action:    "auth.login",
		Result:    result,
		IPAddress: c.ClientIP(),
	})
}
