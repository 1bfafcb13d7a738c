package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/domain"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/middleware"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/service"
)

// Signup creates a user with a linked account and returns a token.
func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.authService.Signup(c.Request.Context(), &service.SignupRequest{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
			return
		}
		h.internalError(c, "signup failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": res.Token, "user": res.User})
}

// Signin verifies credentials and returns a token.
func (h *Handler) Signin(c *gin.Context) {
	var req signinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.authService.Signin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.internalError(c, "signin failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": res.Token, "user": res.User})
}

// Google exchanges a verified Google ID token for a local token,
// provisioning the user on first login.
func (h *Handler) Google(c *gin.Context) {
	var req googleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.authService.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity token"})
			return
		}
		h.internalError(c, "federated login failed", err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"token": res.Token, "user": res.User})
}

// Signout revokes the presented token for its remaining lifetime.
func (h *Handler) Signout(c *gin.Context) {
	token := middleware.ExtractBearer(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
		return
	}

	if err := h.authService.Signout(c.Request.Context(), token); err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) || errors.Is(err, domain.ErrTokenExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		h.internalError(c, "signout failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// GetProfile returns the current user's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.authService.GetProfile(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.internalError(c, "failed to load profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile applies a partial self-service profile update.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), auth.UserID(c), &service.UpdateProfileRequest{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, domain.ErrDuplicateUsername):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		default:
			h.internalError(c, "failed to update profile", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// internalError hides the underlying message in production.
func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	if h.production {
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "details": err.Error()})
}
