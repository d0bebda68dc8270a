package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"appaudit/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	scanSummaryTTL = 15 * time.Minute

	// scanLockTTL bounds how long a crashed scan can keep its connection
	// locked before another run may proceed.
	scanLockTTL = 10 * time.Minute
)

// CacheService fronts redis for scan locks, cached scan summaries, and
// request rate limiting.
type CacheService interface {
	// AcquireScanLock takes the per-connection scan lock. It returns false
	// without error when another holder already owns it.
	AcquireScanLock(ctx context.Context, connID uuid.UUID) (bool, error)
	ReleaseScanLock(ctx context.Context, connID uuid.UUID) error

	GetScanSummary(ctx context.Context, connID uuid.UUID) (*models.ScanCounts, error)
	SetScanSummary(ctx context.Context, connID uuid.UUID, counts models.ScanCounts) error
	InvalidateScanSummary(ctx context.Context, connID uuid.UUID) error

	// IncrementRate bumps a windowed counter and reports the count inside
	// the current window. Handlers compare it against their limit.
	IncrementRate(ctx context.Context, key string, window time.Duration) (int64, error)

	Ping(ctx context.Context) error
}

type cacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) CacheService {
	return &cacheService{client: client}
}

// NewRedisCacheService builds the service from connection settings.
func NewRedisCacheService(addr, password string, db int) CacheService {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewCacheService(client)
}

func scanLockKey(connID uuid.UUID) string {
	return fmt.Sprintf("scanlock:%s", connID)
}

func scanSummaryKey(connID uuid.UUID) string {
	return fmt.Sprintf("scansummary:%s", connID)
}

func (c *cacheService) AcquireScanLock(ctx context.Context, connID uuid.UUID) (bool, error) {
	return c.client.SetNX(ctx, scanLockKey(connID), "1", scanLockTTL).Result()
}

func (c *cacheService) ReleaseScanLock(ctx context.Context, connID uuid.UUID) error {
	return c.client.Del(ctx, scanLockKey(connID)).Err()
}

func (c *cacheService) GetScanSummary(ctx context.Context, connID uuid.UUID) (*models.ScanCounts, error) {
	data, err := c.client.Get(ctx, scanSummaryKey(connID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var counts models.ScanCounts
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (c *cacheService) SetScanSummary(ctx context.Context, connID uuid.UUID, counts models.ScanCounts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scanSummaryKey(connID), data, scanSummaryTTL).Err()
}

func (c *cacheService) InvalidateScanSummary(ctx context.Context, connID uuid.UUID) error {
	return c.client.Del(ctx, scanSummaryKey(connID)).Err()
}

func (c *cacheService) IncrementRate(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, "rate:"+key)
	pipe.Expire(ctx, "rate:"+key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *cacheService) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
