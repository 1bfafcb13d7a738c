package main

import (
	"context"
	"log"

	"github.com/appliancevault/appliance-vault-backend/config"
	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	authservice "github.com/appliancevault/appliance-vault-backend/internal/auth/service"
	"github.com/appliancevault/appliance-vault-backend/internal/bootstrap"
	"github.com/appliancevault/appliance-vault-backend/internal/database/migrations"
)

const serviceName = "appliance-vault-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("[main] database: %v", err)
	}
	defer pool.Close()

	sqlDB, err := bootstrap.OpenSQL(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("[main] database: %v", err)
	}
	defer sqlDB.Close()

	if err := migrations.MigrateUp(sqlDB); err != nil {
		log.Fatalf("[main] migrations: %v", err)
	}

	redisClient := bootstrap.OpenRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var verifier authservice.IdentityVerifier
	if cfg.Auth.GoogleClientID != "" {
		verifier, err = auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)
		if err != nil {
			log.Fatalf("[main] google verifier: %v", err)
		}
	} else {
		log.Println("[main] AUTH_GOOGLE_CLIENT_ID unset, federated login disabled")
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		Pool:        pool,
		SQLDB:       sqlDB,
		Redis:       redisClient,
		Verifier:    verifier,
	})

	addr := ":" + cfg.Server.Port
	log.Printf("[main] %s listening on %s", serviceName, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("[main] server: %v", err)
	}
}
