package http

import "github.com/gin-gonic/gin"

// Register mounts the appliance routes. The receipt download route is
// deliberately outside authGate: its credential arrives as a query
// parameter (see Handler.Download).
func (h *Handler) Register(rg *gin.RouterGroup, authGate gin.HandlerFunc) {
	rg.GET("/:id/receipt/:receiptId", h.Download)

	rg.POST("/add", authGate, h.Add)
	rg.GET("/get", authGate, h.List)
	rg.GET("/:id", authGate, h.Get)
	rg.PUT("/:id", authGate, h.Update)
	rg.DELETE("/:id", authGate, h.Delete)
	rg.PUT("/:id/receipt", authGate, h.AppendReceipt)
}
