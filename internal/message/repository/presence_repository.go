package repository

import (
	"context"
	"time"

	"pairva_message_service/internal/message/domain"
	"pairva_message_service/pkg/database"

	"github.com/go-redis/redis/v8"
)

// PresenceRepository best-effort record of which users hold a live gateway
// connection, advisory only, the in-process session registry stays the only
// routing source
type PresenceRepository interface {
	Up(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	Down(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

type presenceRepository struct {
	repo database.RedisRepository[domain.Presence]
	ttl  time.Duration
}

// NewRedisPresenceRepository create a PresenceRepository, entries expire on
// their own when a gateway dies without cleanup
func NewRedisPresenceRepository(client *redis.Client, ttl time.Duration) PresenceRepository {
	return &presenceRepository{
		repo: database.NewRedisRepository[domain.Presence](client),
		ttl:  ttl,
	}
}

func presenceKey(userID string) string {
	return "presence:user:" + userID
}

// Up mark userID online
func (r *presenceRepository) Up(ctx context.Context, userID string) error {
	p := domain.Presence{
		UserID:      userID,
		ConnectedAt: time.Now().UnixMilli(),
	}
	return r.repo.Set(ctx, presenceKey(userID), p, r.ttl)
}

// Refresh extend the entry TTL, called from the gateway ping ticker
func (r *presenceRepository) Refresh(ctx context.Context, userID string) error {
	return r.repo.ExtendTTL(ctx, presenceKey(userID), r.ttl)
}

// Down mark userID offline
func (r *presenceRepository) Down(ctx context.Context, userID string) error {
	return r.repo.Del(ctx, presenceKey(userID))
}

// IsOnline check userID has a live entry
func (r *presenceRepository) IsOnline(ctx context.Context, userID string) (bool, error) {
	return r.repo.Exists(ctx, presenceKey(userID))
}
