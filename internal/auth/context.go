package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

// UserID extracts the authenticated subject id from the Gin context.
// This is set by middleware.RequireAuth.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// Username extracts the authenticated username from the Gin context.
func Username(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUsername))
}
