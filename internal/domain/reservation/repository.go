package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Reservation, error)

	// Update は予約の状態を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, r *Reservation) error

	// GetStalePending は保持期間を過ぎた保留中の予約一覧を取得する
	GetStalePending(ctx context.Context, olderThan time.Duration) ([]*Reservation, error)

	// GetConfirmedForEndedEvents は終了済みイベントの確定予約一覧を取得する
	GetConfirmedForEndedEvents(ctx context.Context, now time.Time) ([]*Reservation, error)
}
