// Package cache provides an optional Redis-backed cache for organization
// membership lookups, which happen on every scoped request. When REDIS_ADDR
// is unset the cache degrades to a no-op and lookups always hit Postgres.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const membershipTTL = 5 * time.Minute

// MembershipCache caches the role of a user inside an organization.
type MembershipCache struct {
	rdb *redis.Client
}

// NewMembershipCache connects to Redis at addr. An empty addr or a failed
// ping returns a disabled cache rather than an error.
func NewMembershipCache(addr string) *MembershipCache {
	if addr == "" {
		log.Println("REDIS_ADDR not set, membership caching disabled")
		return &MembershipCache{}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis connection failed, membership caching disabled:", err)
		return &MembershipCache{}
	}

	log.Println("Connected to Redis.")
	return &MembershipCache{rdb: rdb}
}

// Enabled reports whether a Redis backend is available.
func (c *MembershipCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func membershipKey(orgID, userID uuid.UUID) string {
	return "membership:" + orgID.String() + ":" + userID.String()
}

// GetRole returns the cached role, or "" on miss or when disabled.
func (c *MembershipCache) GetRole(ctx context.Context, orgID, userID uuid.UUID) string {
	if !c.Enabled() {
		return ""
	}
	role, err := c.rdb.Get(ctx, membershipKey(orgID, userID)).Result()
	if err != nil {
		return ""
	}
	return role
}

// SetRole caches the role for the membership TTL.
func (c *MembershipCache) SetRole(ctx context.Context, orgID, userID uuid.UUID, role string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, membershipKey(orgID, userID), role, membershipTTL).Err(); err != nil {
		log.Println("Failed to cache membership role:", err)
	}
}

// Invalidate drops the cached role after a membership change so the new role
// takes effect within the same request cycle, not after the TTL.
func (c *MembershipCache) Invalidate(ctx context.Context, orgID, userID uuid.UUID) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, membershipKey(orgID, userID)).Err(); err != nil {
		log.Println("Failed to invalidate membership cache:", err)
	}
}
