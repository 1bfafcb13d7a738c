package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/service"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func setupRouter(tokens *service.TokenService, revocation *service.RevocationStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", RequireAuth(tokens, revocation), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": auth.UserID(c)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	tokens := service.NewTokenService(testSecret, time.Hour)
	router := setupRouter(tokens, service.NewRevocationStore(nil))

	t.Run("valid token passes and sets subject", func(t *testing.T) {
		token, err := tokens.Generate("user-1", "a@b.com")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "user-1")
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireAuthExpired(t *testing.T) {
	expired := service.NewTokenService(testSecret, -time.Minute)
	router := setupRouter(expired, service.NewRevocationStore(nil))

	token, err := expired.Generate("user-1", "a@b.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "token expired")
}

func TestRequireAuthRevoked(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	revocation := service.NewRevocationStore(client)

	tokens := service.NewTokenService(testSecret, time.Hour)
	router := setupRouter(tokens, revocation)

	token, err := tokens.Generate("user-1", "a@b.com")
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	require.NoError(t, revocation.Revoke(context.Background(), claims.ID, time.Hour))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "token revoked")
}
