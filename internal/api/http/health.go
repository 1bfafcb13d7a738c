package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthResponse reports the service and the state of its two backing
// stores. Redis is optional, so "disabled" is a healthy answer there.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
	Redis     string    `json:"redis"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          *pgxpool.Pool
	redis       *redis.Client
}

func NewHealthHandler(serviceName, version string, db *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		redis:       rdb,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	status := "healthy"

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "up"
		if err := h.db.Ping(pingCtx); err != nil {
			dbStatus = "down"
			status = "degraded"
		}
	}

	// Redis only carries the revocation denylist; the service stays
	// healthy without it.
	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "up"
		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			redisStatus = "down"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Redis:     redisStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
}
