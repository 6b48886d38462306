package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHandlerTimeout = 30 * time.Second

// requestContext derives a bounded context from the request so slow store
// operations cannot pin a handler goroutine indefinitely.
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), defaultHandlerTimeout)
}
