package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/appliancevault/appliance-vault-backend/config"
)

// OpenRedis connects to Redis when an address is configured. A nil
// client is returned when REDIS_ADDR is unset, which disables token
// revocation but keeps the API fully functional.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		log.Println("[bootstrap] redis not configured, token revocation disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[bootstrap] redis unreachable at %s: %v, token revocation disabled", cfg.Addr, err)
		client.Close()
		return nil
	}

	log.Printf("[bootstrap] redis connected at %s", cfg.Addr)
	return client
}
