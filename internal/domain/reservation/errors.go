package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound     = errors.New("予約が見つかりません")
	ErrReservationNotPending   = errors.New("予約は保留中ではありません")
	ErrReservationNotConfirmed = errors.New("予約は確定されていません")
)
