package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-ticketing/internal/pkg/logger"
)

// ReservationMaintenanceService は予約の定期メンテナンス操作のインターフェース
type ReservationMaintenanceService interface {
	ExpireStaleReservations(ctx context.Context, olderThan time.Duration) (int, error)
	CompleteReservations(ctx context.Context, now time.Time) (int, error)
}

// ReservationMaintainer は予約の定期メンテナンスを行うワーカー。
// 保持期間を過ぎた保留中の予約を期限切れにし、
// 終了済みイベントの確定予約を完了状態へ移行する。
type ReservationMaintainer struct {
	reservationService ReservationMaintenanceService
	interval           time.Duration
	holdTTL            time.Duration
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// NewReservationMaintainer は新しいメンテナンスワーカーを作成
func NewReservationMaintainer(
	rs ReservationMaintenanceService,
	interval time.Duration,
	holdTTL time.Duration,
) *ReservationMaintainer {
	return &ReservationMaintainer{
		reservationService: rs,
		interval:           interval,
		holdTTL:            holdTTL,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *ReservationMaintainer) Start(ctx context.Context) {
	logger.Info("予約メンテナンスワーカー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("hold_ttl", w.holdTTL),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約メンテナンスワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("予約メンテナンスワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *ReservationMaintainer) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// runOnce は1サイクル分のメンテナンスを実行
func (w *ReservationMaintainer) runOnce(ctx context.Context) {
	log := logger.Get()
	log.Debug("予約メンテナンス開始")

	expired, err := w.reservationService.ExpireStaleReservations(ctx, w.holdTTL)
	if err != nil {
		log.Error("保留予約の期限切れ処理に失敗", zap.Error(err))
	} else if expired > 0 {
		log.Info("保留予約を期限切れに変更", zap.Int("count", expired))
	}

	completed, err := w.reservationService.CompleteReservations(ctx, time.Now())
	if err != nil {
		log.Error("確定予約の完了処理に失敗", zap.Error(err))
	} else if completed > 0 {
		log.Info("終了済みイベントの予約を完了に変更", zap.Int("count", completed))
	}
}
