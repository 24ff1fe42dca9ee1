package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"chat-realtime/internal/database"
	"chat-realtime/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey = "online_users"

	onlineStatusTTL  = 5 * time.Minute
	offlineStatusTTL = 24 * time.Hour
)

// RedisService mirrors presence into Redis for services outside this
// process and backs the HTTP rate limiter
type RedisService struct {
	client *database.RedisClient
	log    *logger.Logger
	now    func() time.Time
}

func NewRedisService(client *database.RedisClient, log *logger.Logger) *RedisService {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisService{
		client: client,
		log:    log.Named("redis"),
		now:    time.Now,
	}
}

func statusKey(userID string) string {
	return fmt.Sprintf("user:%s:status", userID)
}

// =============================================================================
// User Status Management
// =============================================================================

func (r *RedisService) SetUserOnline(ctx context.Context, userID string) error {
	return r.setStatus(ctx, userID, "online", onlineStatusTTL, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, onlineUsersKey, userID)
	})
}

func (r *RedisService) SetUserOffline(ctx context.Context, userID string) error {
	return r.setStatus(ctx, userID, "offline", offlineStatusTTL, func(pipe redis.Pipeliner) {
		pipe.SRem(ctx, onlineUsersKey, userID)
	})
}

func (r *RedisService) setStatus(ctx context.Context, userID, status string, ttl time.Duration, membership func(redis.Pipeliner)) error {
	now := r.now().Unix()
	pipe := r.client.GetClient().Pipeline()

	membership(pipe)
	pipe.HSet(ctx, statusKey(userID), map[string]interface{}{
		"status":     status,
		"last_seen":  now,
		"updated_at": now,
	})
	pipe.Expire(ctx, statusKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user %s %s: %w", userID, status, err)
	}

	r.log.Debug("User status updated", "userID", userID, "status", status)
	return nil
}

func (r *RedisService) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	return r.client.GetClient().SIsMember(ctx, onlineUsersKey, userID).Result()
}

func (r *RedisService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return r.client.GetClient().SMembers(ctx, onlineUsersKey).Result()
}

// LastSeen returns when userID last connected or disconnected. ok is false
// when no status is known.
func (r *RedisService) LastSeen(ctx context.Context, userID string) (at time.Time, ok bool, err error) {
	value, err := r.client.GetClient().HGet(ctx, statusKey(userID), "last_seen").Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed last_seen for %s: %w", userID, err)
	}
	return time.Unix(unix, 0), true, nil
}

// ResetPresence clears the online set, for a fresh process that owns no
// connections yet
func (r *RedisService) ResetPresence(ctx context.Context) error {
	return r.client.GetClient().Del(ctx, onlineUsersKey).Err()
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit records a request under key and reports whether fewer than
// limit requests were seen in the sliding window before it
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.GetClient().Pipeline()

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// Count current entries
	count := pipe.ZCard(ctx, key)

	// Add current request
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})

	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}
