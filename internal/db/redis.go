// internal/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("[Redis] ✅ Connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		log.Println("[Redis] Connection closed")
	}
}

func cacheKey(key string) string {
	return "cache:" + key
}

// Cache methods
func (r *RedisDB) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, cacheKey(key), data, expiration).Err()
}

// GetCache decodes a cached value into dest. A miss returns found=false and no error.
func (r *RedisDB) GetCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.Client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisDB) DeleteCache(ctx context.Context, key string) error {
	return r.Client.Del(ctx, cacheKey(key)).Err()
}

// ============================================
// Desk member cache
// ============================================

const (
	memberCacheTTL = 5 * time.Minute
	// Outlives any read that could still be in flight.
	memberGenerationTTL = 24 * time.Hour
)

var errStaleGeneration = errors.New("member cache generation changed")

// MemberCache caches the raw member rows of a desk, users included. Each desk
// carries a generation counter bumped on every Invalidate; writes are checked
// against it under WATCH so a stale read never lands after an invalidation.
type MemberCache struct {
	redis *RedisDB
	ttl   time.Duration
}

func NewMemberCache(r *RedisDB) *MemberCache {
	return &MemberCache{redis: r, ttl: memberCacheTTL}
}

func memberCacheKey(deskID string) string {
	return "desk_members:" + deskID
}

func memberGenerationKey(deskID string) string {
	return cacheKey("desk_members_gen:" + deskID)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c stringGetter, deskID string) (int64, error) {
	gen, err := c.Get(ctx, memberGenerationKey(deskID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *MemberCache) GetMembers(ctx context.Context, deskID string) ([]*repository.DeskMember, int64, bool) {
	var members []*repository.DeskMember
	found, err := c.redis.GetCache(ctx, memberCacheKey(deskID), &members)
	if err != nil {
		log.Printf("[Redis] member cache read failed for desk %s: %v", deskID, err)
		found = false
	}
	if found {
		return members, 0, true
	}

	gen, err := readGeneration(ctx, c.redis.Client, deskID)
	if err != nil {
		log.Printf("[Redis] member cache generation read failed for desk %s: %v", deskID, err)
		return nil, -1, false
	}
	return nil, gen, false
}

func (c *MemberCache) SetMembers(ctx context.Context, deskID string, generation int64, members []*repository.DeskMember) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(members)
	if err != nil {
		log.Printf("[Redis] member cache encode failed for desk %s: %v", deskID, err)
		return
	}

	genKey := memberGenerationKey(deskID)
	err = c.redis.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, deskID)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(memberCacheKey(deskID)), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		log.Printf("[Redis] skipped stale member cache write for desk %s", deskID)
	default:
		log.Printf("[Redis] member cache write failed for desk %s: %v", deskID, err)
	}
}

func (c *MemberCache) Invalidate(ctx context.Context, deskID string) {
	genKey := memberGenerationKey(deskID)
	_, err := c.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, memberGenerationTTL)
		pipe.Del(ctx, cacheKey(memberCacheKey(deskID)))
		return nil
	})
	if err != nil {
		log.Printf("[Redis] member cache invalidate failed for desk %s: %v", deskID, err)
	}
}
