package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface はゾーン残席数のキャッシュを抽象化する
type AvailabilityCacheInterface interface {
	GetAvailableCount(ctx context.Context, zoneID string) (int, error)
	SetAvailableCount(ctx context.Context, zoneID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, zoneID string) error
}

// AvailabilityCache はゾーンごとの残席数キャッシュを管理する
type AvailabilityCache struct {
	client *redis.Client
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableCount はゾーンの残席数をキャッシュから取得する
func (c *AvailabilityCache) GetAvailableCount(ctx context.Context, zoneID string) (int, error) {
	key := c.availableCountKey(zoneID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount はゾーンの残席数をキャッシュに保存する
func (c *AvailabilityCache) SetAvailableCount(ctx context.Context, zoneID string, count int, ttl time.Duration) error {
	key := c.availableCountKey(zoneID)
	err := c.client.Set(ctx, key, count, ttl).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はゾーンのキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, zoneID string) error {
	key := c.availableCountKey(zoneID)
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) availableCountKey(zoneID string) string {
	return fmt.Sprintf("zones:available:%s", zoneID)
}
