package zone

import "errors"

// Zone ドメインのエラー定義
var (
	ErrZoneNotFound         = errors.New("ゾーンが見つかりません")
	ErrZoneNameRequired     = errors.New("ゾーン名は必須です")
	ErrEventIDRequired      = errors.New("イベントIDは必須です")
	ErrInvalidPrice         = errors.New("座席価格が不正です")
	ErrInvalidCapacity      = errors.New("定員が不正です")
	ErrInsufficientCapacity = errors.New("ゾーンの残席数が不足しています")
)
