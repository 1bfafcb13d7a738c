package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/appliancevault/appliance-vault-backend/config"
	httpapi "github.com/appliancevault/appliance-vault-backend/internal/api/http"
	apimw "github.com/appliancevault/appliance-vault-backend/internal/api/http/middleware"
	appliancehttp "github.com/appliancevault/appliance-vault-backend/internal/appliance/http"
	appliancerepo "github.com/appliancevault/appliance-vault-backend/internal/appliance/repository"
	applianceservice "github.com/appliancevault/appliance-vault-backend/internal/appliance/service"
	authhttp "github.com/appliancevault/appliance-vault-backend/internal/auth/http"
	authmw "github.com/appliancevault/appliance-vault-backend/internal/auth/middleware"
	authrepo "github.com/appliancevault/appliance-vault-backend/internal/auth/repository"
	authservice "github.com/appliancevault/appliance-vault-backend/internal/auth/service"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	Pool        *pgxpool.Pool
	SQLDB       *sql.DB
	Redis       *redis.Client
	Verifier    authservice.IdentityVerifier
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(apimw.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Config.App.Version, dep.Pool, dep.Redis)
	healthHandler.RegisterRoutes(r)

	tokens := authservice.NewTokenService(dep.Config.Auth.JWTSecret, dep.Config.Auth.TokenTTL)
	revocation := authservice.NewRevocationStore(dep.Redis)
	authGate := authmw.RequireAuth(tokens, revocation)
	loginLimit := apimw.RateLimit(rate.Every(time.Second), 10)

	userRepo := authrepo.NewUserRepository(dep.SQLDB)
	authSvc := authservice.NewAuthService(userRepo, tokens, dep.Verifier, revocation)
	authHandler := authhttp.New(authSvc, dep.Config.IsProduction())
	authHandler.Register(r.Group("/user"), authGate, loginLimit)

	applianceStore := appliancerepo.NewApplianceRepository(dep.Pool)
	applianceSvc := applianceservice.NewApplianceService(applianceStore, tokens)
	applianceHandler := appliancehttp.New(applianceSvc, dep.Config.IsProduction())
	applianceHandler.Register(r.Group("/appliance"), authGate)

	return r
}
