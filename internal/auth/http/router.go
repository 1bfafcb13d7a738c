package http

import "github.com/gin-gonic/gin"

// Register mounts the user routes. authGate protects the self-service
// endpoints; the credential endpoints stay open behind rateLimit.
func (h *Handler) Register(rg *gin.RouterGroup, authGate, rateLimit gin.HandlerFunc) {
	rg.POST("/google", rateLimit, h.Google)
	rg.POST("/signup", rateLimit, h.Signup)
	rg.POST("/signin", rateLimit, h.Signin)

	rg.POST("/signout", authGate, h.Signout)
	rg.GET("/", authGate, h.GetProfile)
	rg.PUT("/", authGate, h.UpdateProfile)
}
