package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound     = errors.New("イベントが見つかりません")
	ErrEventNotOpen      = errors.New("イベントは予約受付中ではありません")
	ErrEventNameRequired = errors.New("イベント名は必須です")
	ErrInvalidEventTime  = errors.New("イベントの開始・終了時刻が不正です")
	ErrVersionConflict   = errors.New("イベントが他の処理によって更新されています")
)
