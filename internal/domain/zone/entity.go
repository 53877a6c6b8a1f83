package zone

import "time"

// Zone は座席ゾーン（席種）エンティティを表す
// イベント内の価格帯ごとの座席区分（例: VIP, General）で、
// 個席単位ではなく残席数で在庫を管理する
type Zone struct {
	ID           string
	EventID      string
	Name         string
	PricePerSeat float64
	Capacity     int
	Available    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int // 楽観的ロック用
}

// NewZone は新しいゾーンを作成する（残席数は定員で初期化）
func NewZone(eventID, name string, pricePerSeat float64, capacity int) *Zone {
	now := time.Now()
	return &Zone{
		EventID:      eventID,
		Name:         name,
		PricePerSeat: pricePerSeat,
		Capacity:     capacity,
		Available:    capacity,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      0,
	}
}

// HasCapacity は指定数の座席を確保できるかを返す
func (z *Zone) HasCapacity(quantity int) bool {
	return quantity > 0 && z.Available >= quantity
}

// Reserve は指定数の座席を確保して残席数を減らす
func (z *Zone) Reserve(quantity int) error {
	if !z.HasCapacity(quantity) {
		return ErrInsufficientCapacity
	}
	z.Available -= quantity
	z.UpdatedAt = time.Now()
	return nil
}

// Release は確保済みの座席を解放して残席数を戻す
func (z *Zone) Release(quantity int) {
	z.Available += quantity
	if z.Available > z.Capacity {
		z.Available = z.Capacity
	}
	z.UpdatedAt = time.Now()
}

// Validate はゾーンの検証を行う
func (z *Zone) Validate() error {
	if z.EventID == "" {
		return ErrEventIDRequired
	}
	if z.Name == "" {
		return ErrZoneNameRequired
	}
	if z.PricePerSeat < 0 {
		return ErrInvalidPrice
	}
	if z.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	return nil
}
