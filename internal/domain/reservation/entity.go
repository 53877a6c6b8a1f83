package reservation

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// HoldExpiration は未確定予約の保持期間のデフォルト
// RESERVATION_HOLD_TTL が未設定のときに設定層が使用する
const HoldExpiration = 15 * time.Minute

// Reservation は予約エンティティを表す
// SeatNumbers はカンマ区切りの座席ラベル（例: "A1, A2, A3"）で、
// 件数は Quantity と一致しなければならない
type Reservation struct {
	ID           string
	EventID      string
	UserID       string
	ZoneID       string
	ZoneName     string
	Quantity     int
	SeatNumbers  string
	PricePerSeat float64
	TotalPrice   float64
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReservation は新しい予約を作成する
// TotalPrice は PricePerSeat × Quantity（手数料・税は表示用の内訳であり、ここには含めない）
func NewReservation(eventID, userID, zoneID, zoneName string, quantity int, seatNumbers string, pricePerSeat float64) *Reservation {
	now := time.Now()
	return &Reservation{
		EventID:      eventID,
		UserID:       userID,
		ZoneID:       zoneID,
		ZoneName:     zoneName,
		Quantity:     quantity,
		SeatNumbers:  seatNumbers,
		PricePerSeat: pricePerSeat,
		TotalPrice:   pricePerSeat * float64(quantity),
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsPending は予約が保留中かを返す
func (r *Reservation) IsPending() bool {
	return r.Status == StatusPending
}

// Confirm は予約を確定する
func (r *Reservation) Confirm() error {
	if r.Status != StatusPending {
		return ErrReservationNotPending
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセル状態にする
// キャンセル可否のビジネスルールは Validator.ValidateCancellation が判定する
func (r *Reservation) Cancel() {
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
}

// Complete はイベント終了後に予約を完了状態にする
func (r *Reservation) Complete() error {
	if r.Status != StatusConfirmed {
		return ErrReservationNotConfirmed
	}
	r.Status = StatusCompleted
	r.UpdatedAt = time.Now()
	return nil
}

// Expire は保持期間を過ぎた保留中の予約を期限切れにする
func (r *Reservation) Expire() error {
	if r.Status != StatusPending {
		return ErrReservationNotPending
	}
	r.Status = StatusExpired
	r.UpdatedAt = time.Now()
	return nil
}
