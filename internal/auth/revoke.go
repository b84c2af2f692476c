package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RevocationStore records revoked token IDs (jti) in Redis until the token
// would have expired anyway. Logout writes here; the auth middleware checks it.
type RevocationStore struct {
	rdb *redis.Client
}

// NewRevocationStore creates a new revocation store
func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	return &RevocationStore{rdb: rdb}
}

func revocationKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// Revoke marks a token ID as revoked. TTL should be the remaining lifetime of
// the token; a non-positive TTL means the token is already expired and there
// is nothing to store.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return fmt.Errorf("empty token id")
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revocationKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revocation: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token ID has been revoked. Redis errors are
// returned so the caller can decide between failing closed or open.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := s.rdb.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return exists > 0, nil
}
