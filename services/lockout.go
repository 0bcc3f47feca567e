package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockoutKeyPrefix  = "ideaboard:lockout:"
	lockoutTTL        = 25 * time.Hour // auto-cleanup
	failThreshold     = 3
	maxLockoutMinutes = 24 * 60 // 24h cap
)

// LoginLockout throttles repeated failures against the access password,
// keyed by client address. Without Redis it is a no-op; the rate limiter
// on the auth routes is the remaining guard.
type LoginLockout struct {
	rdb *redis.Client
}

func NewLoginLockout(rdb *redis.Client) *LoginLockout {
	return &LoginLockout{rdb: rdb}
}

// lockoutDuration doubles per tier of failThreshold failures, starting at
// 15 minutes, capped at 24h.
func lockoutDuration(failCount int) time.Duration {
	tier := failCount / failThreshold
	if tier <= 0 {
		return 0
	}
	minutes := 15 * (1 << (tier - 1))
	if minutes > maxLockoutMinutes {
		minutes = maxLockoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// IsLocked reports whether addr is locked out and for how many more seconds.
func (lo *LoginLockout) IsLocked(ctx context.Context, addr string) (bool, int) {
	if lo.rdb == nil {
		return false, 0
	}

	lockedUntil, err := lo.rdb.HGet(ctx, lockoutKeyPrefix+addr, "locked_until").Result()
	if err != nil {
		return false, 0
	}

	ts, err := strconv.ParseInt(lockedUntil, 10, 64)
	if err != nil {
		return false, 0
	}

	until := time.Unix(ts, 0)
	if time.Now().After(until) {
		return false, 0
	}
	return true, int(time.Until(until).Seconds())
}

// RecordFailure increments the fail count and applies a lockout when a
// threshold tier is crossed.
func (lo *LoginLockout) RecordFailure(ctx context.Context, addr string) {
	if lo.rdb == nil {
		return
	}
	key := lockoutKeyPrefix + addr

	newCount, err := lo.rdb.HIncrBy(ctx, key, "fail_count", 1).Result()
	if err != nil {
		log.Printf("[Lockout] Redis HIncrBy failed for %s: %v", addr, err)
		return
	}
	if err := lo.rdb.Expire(ctx, key, lockoutTTL).Err(); err != nil {
		log.Printf("[Lockout] Redis Expire failed for %s: %v", addr, err)
	}

	if newCount >= failThreshold && newCount%failThreshold == 0 {
		dur := lockoutDuration(int(newCount))
		lockedUntil := time.Now().Add(dur).Unix()
		if err := lo.rdb.HSet(ctx, key, "locked_until", strconv.FormatInt(lockedUntil, 10)).Err(); err != nil {
			log.Printf("[Lockout] Redis HSet locked_until failed for %s: %v", addr, err)
		}
	}
}

// RecordSuccess clears the fail count for addr.
func (lo *LoginLockout) RecordSuccess(ctx context.Context, addr string) {
	if lo.rdb == nil {
		return
	}
	if err := lo.rdb.Del(ctx, lockoutKeyPrefix+addr).Err(); err != nil {
		log.Printf("[Lockout] Redis Del failed for %s: %v", addr, err)
	}
}
