package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/event"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/pricing"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/reservation"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/transaction"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
	redisinfra "github.com/sanosuguru/go-event-ticketing/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-ticketing/internal/pkg/logger"
)

type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	zoneRepo        zone.Repository
	eventRepo       event.Repository
	lockManager     redisinfra.LockManagerInterface
	cache           redisinfra.AvailabilityCacheInterface
	validator       *reservation.Validator
	calculator      *pricing.Calculator
}

func NewReservationService(
	txManager transaction.Manager,
	rr reservation.Repository,
	zr zone.Repository,
	er event.Repository,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.AvailabilityCacheInterface,
) *ReservationService {
	return &ReservationService{
		txManager:       txManager,
		reservationRepo: rr,
		zoneRepo:        zr,
		eventRepo:       er,
		lockManager:     lm,
		cache:           cache,
		validator:       reservation.NewValidator(),
		calculator:      pricing.NewCalculator(),
	}
}

type CreateReservationInput struct {
	EventID     string
	UserID      string
	ZoneID      string
	Quantity    int
	SeatNumbers string
}

func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	// ゾーン単位の分散ロックで残席更新を直列化する
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, "zone:"+input.ZoneID, 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				return nil, fmt.Errorf("ゾーンが他のユーザーによって処理中です: %w", err)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer lock.Release(ctx)
	}

	// イベント確認
	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	if !ev.IsBookingOpen() {
		return nil, event.ErrEventNotOpen
	}

	// ゾーン確認
	z, err := s.zoneRepo.GetByID(ctx, input.ZoneID)
	if err != nil {
		return nil, fmt.Errorf("ゾーン取得に失敗: %w", err)
	}
	if z.EventID != input.EventID {
		return nil, zone.ErrZoneNotFound
	}
	if !z.HasCapacity(input.Quantity) {
		return nil, zone.ErrInsufficientCapacity
	}

	// 予約作成
	res := reservation.NewReservation(input.EventID, input.UserID, input.ZoneID, z.Name, input.Quantity, input.SeatNumbers, z.PricePerSeat)
	if result := s.validator.ValidateReservation(res); !result.Valid() {
		return nil, reservation.NewValidationError(result)
	}
	if result := s.validator.ValidateSeatNumbers(res.SeatNumbers, res.Quantity); !result.Valid() {
		return nil, reservation.NewValidationError(result)
	}

	// トランザクション
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := s.zoneRepo.ReserveCapacity(ctx, tx, input.ZoneID, input.Quantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, input.ZoneID)
	return res, nil
}

type QuotePriceInput struct {
	ZoneID             string
	Quantity           int
	ApplyServiceFee    bool
	ApplyTax           bool
	DiscountPercentage float64
}

// QuotePrice はゾーンの単価をもとに料金内訳を計算する
func (s *ReservationService) QuotePrice(ctx context.Context, input QuotePriceInput) (pricing.Breakdown, error) {
	z, err := s.zoneRepo.GetByID(ctx, input.ZoneID)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("ゾーン取得に失敗: %w", err)
	}
	return s.calculator.CalculateTotalPrice(z.PricePerSeat, input.Quantity, input.ApplyServiceFee, input.ApplyTax, input.DiscountPercentage), nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

func (s *ReservationService) GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.reservationRepo.GetByUserID(ctx, userID, limit, offset)
}

func (s *ReservationService) ConfirmReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.Confirm(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return res, nil
}

// CancelReservation は予約をキャンセルし、払い戻し額を返す。
// キャンセル期限とステータスの検査に失敗した場合は ValidationError を返す。
func (s *ReservationService) CancelReservation(ctx context.Context, id string, now time.Time) (*reservation.Reservation, float64, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	if result := s.validator.ValidateCancellation(res, now); !result.Valid() {
		return nil, 0, reservation.NewValidationError(result)
	}

	ev, err := s.eventRepo.GetByID(ctx, res.EventID)
	if err != nil {
		return nil, 0, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	refund := s.calculator.CalculateRefundAmount(res.TotalPrice, ev.HoursUntilStart(now))

	res.Cancel()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, 0, err
	}
	if err := s.zoneRepo.ReleaseCapacity(ctx, tx, res.ZoneID, res.Quantity); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, res.ZoneID)
	return res, refund, nil
}

// ExpireStaleReservations は作成から olderThan 経過した保留中の予約を期限切れにする
func (s *ReservationService) ExpireStaleReservations(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.reservationRepo.GetStalePending(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}

	count := 0
	for _, res := range stale {
		if err := res.Expire(); err != nil {
			continue
		}
		if err := s.releaseInTx(ctx, res); err != nil {
			logger.Warn("予約の期限切れ処理に失敗",
				zap.String("reservation_id", res.ID),
				zap.Error(err))
			continue
		}
		s.invalidateCache(ctx, res.ZoneID)
		count++
	}
	return count, nil
}

// CompleteReservations は終了済みイベントの確定予約を完了にする
func (s *ReservationService) CompleteReservations(ctx context.Context, now time.Time) (int, error) {
	confirmed, err := s.reservationRepo.GetConfirmedForEndedEvents(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("完了対象予約取得に失敗: %w", err)
	}

	count := 0
	for _, res := range confirmed {
		if err := res.Complete(); err != nil {
			continue
		}

		tx, err := s.txManager.Begin(ctx)
		if err != nil {
			logger.Warn("予約の完了処理に失敗",
				zap.String("reservation_id", res.ID),
				zap.Error(err))
			continue
		}
		if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
			tx.Rollback()
			logger.Warn("予約の完了処理に失敗",
				zap.String("reservation_id", res.ID),
				zap.Error(err))
			continue
		}
		if err := tx.Commit(); err != nil {
			tx.Rollback()
			continue
		}
		count++
	}
	return count, nil
}

// releaseInTx は予約の状態更新と残席解放を1トランザクションで行う
func (s *ReservationService) releaseInTx(ctx context.Context, res *reservation.Reservation) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return err
	}
	if err := s.zoneRepo.ReleaseCapacity(ctx, tx, res.ZoneID, res.Quantity); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

func (s *ReservationService) invalidateCache(ctx context.Context, zoneID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, zoneID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Error(err))
	}
}
