package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/event"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
	redisinfra "github.com/sanosuguru/go-event-ticketing/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-ticketing/internal/pkg/logger"
)

const (
	availabilityCacheTTL = 30 * time.Second
)

type ZoneService struct {
	zoneRepo  zone.Repository
	eventRepo event.Repository
	cache     redisinfra.AvailabilityCacheInterface
}

func NewZoneService(zr zone.Repository, er event.Repository, cache redisinfra.AvailabilityCacheInterface) *ZoneService {
	return &ZoneService{zoneRepo: zr, eventRepo: er, cache: cache}
}

type CreateZoneInput struct {
	EventID      string
	Name         string
	PricePerSeat float64
	Capacity     int
}

func (s *ZoneService) CreateZone(ctx context.Context, input CreateZoneInput) (*zone.Zone, error) {
	if _, err := s.eventRepo.GetByID(ctx, input.EventID); err != nil {
		return nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	z := zone.NewZone(input.EventID, input.Name, input.PricePerSeat, input.Capacity)
	if err := z.Validate(); err != nil {
		return nil, err
	}
	if err := s.zoneRepo.Create(ctx, z); err != nil {
		return nil, err
	}
	return z, nil
}

type CreateBulkZonesInput struct {
	EventID string
	Zones   []CreateZoneInput
}

func (s *ZoneService) CreateBulkZones(ctx context.Context, input CreateBulkZonesInput) ([]*zone.Zone, error) {
	if _, err := s.eventRepo.GetByID(ctx, input.EventID); err != nil {
		return nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	zones := make([]*zone.Zone, 0, len(input.Zones))
	for _, in := range input.Zones {
		z := zone.NewZone(input.EventID, in.Name, in.PricePerSeat, in.Capacity)
		if err := z.Validate(); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := s.zoneRepo.CreateBulk(ctx, zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (s *ZoneService) GetZone(ctx context.Context, id string) (*zone.Zone, error) {
	return s.zoneRepo.GetByID(ctx, id)
}

func (s *ZoneService) GetZonesByEvent(ctx context.Context, eventID string) ([]*zone.Zone, error) {
	return s.zoneRepo.GetByEventID(ctx, eventID)
}

// CountZoneAvailability はゾーンの残席数を返す（キャッシュ優先）
func (s *ZoneService) CountZoneAvailability(ctx context.Context, zoneID string) (int, error) {
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, zoneID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("zone_id", zoneID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	z, err := s.zoneRepo.GetByID(ctx, zoneID)
	if err != nil {
		return 0, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, zoneID, z.Available, availabilityCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return z.Available, nil
}

// CountEventAvailability はイベント全体の残席数を返す
func (s *ZoneService) CountEventAvailability(ctx context.Context, eventID string) (int, error) {
	return s.zoneRepo.CountAvailableByEventID(ctx, eventID)
}

// InvalidateCache はゾーンのキャッシュを無効化する
func (s *ZoneService) InvalidateCache(ctx context.Context, zoneID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, zoneID); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}
