package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps revoked token ids (jti) in Redis until the
// token would have expired anyway. A nil client disables revocation:
// Revoke becomes a no-op and IsRevoked always reports false, so the
// service runs without Redis in minimal deployments.
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func (s *RevocationStore) key(jti string) string {
	return fmt.Sprintf("revoked_token:%s", jti)
}

// Revoke denylists a token id for the given remaining lifetime.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if s.client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(jti), "1", ttl).Err()
}

// IsRevoked reports whether a token id is on the denylist. Redis
// errors are treated as "not revoked" so an unavailable denylist does
// not lock every caller out.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) bool {
	if s.client == nil || jti == "" {
		return false
	}
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
