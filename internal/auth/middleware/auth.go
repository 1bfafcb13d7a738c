package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/domain"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/service"
)

// RequireAuth validates the local bearer token, rejects revoked ids
// and stores the subject in the request context.
func RequireAuth(tokens *service.TokenService, revocation *service.RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearer(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, domain.ErrTokenExpired) {
				msg = "token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}

		if revocation.IsRevoked(c.Request.Context(), claims.ID) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			c.Abort()
			return
		}

		c.Set(auth.CtxUserID, claims.UserID)
		c.Set(auth.CtxUsername, claims.Username)

		c.Next()
	}
}

// ExtractBearer extracts the Bearer token from the Authorization header.
func ExtractBearer(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
