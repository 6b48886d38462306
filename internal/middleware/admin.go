package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
)

// RequireAdmin gates a route group to callers carrying the admin role. The
// role is read from validated token claims set by Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		role, _ := c.Get(CtxRoleKey)
		if role != models.RoleAdmin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
