package http

import "github.com/appliancevault/appliance-vault-backend/internal/auth/service"

type Handler struct {
	authService *service.AuthService
	production  bool
}

func New(authService *service.AuthService, production bool) *Handler {
	return &Handler{
		authService: authService,
		production:  production,
	}
}

type signupReq struct {
	Username  string `json:"username" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
}

type signinReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type googleReq struct {
	IDToken string `json:"idToken" binding:"required"`
}

type updateProfileReq struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Password  *string `json:"password,omitempty"`
}
