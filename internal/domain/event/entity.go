package event

import "time"

// Event はイベントエンティティを表す
type Event struct {
	ID          string
	Name        string
	Description string
	Venue       string
	StartAt     time.Time
	EndAt       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // 楽観的ロック用
}

// NewEvent は新しいイベントを作成する
func NewEvent(name, description, venue string, startAt, endAt time.Time) *Event {
	now := time.Now()
	return &Event{
		Name:        name,
		Description: description,
		Venue:       venue,
		StartAt:     startAt,
		EndAt:       endAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	if e.EndAt.Before(e.StartAt) {
		return ErrInvalidEventTime
	}
	return nil
}

// IsBookingOpen は予約受付中かを返す（開始時刻まで受付）
func (e *Event) IsBookingOpen() bool {
	return time.Now().Before(e.StartAt)
}

// HoursUntilStart は指定時刻からイベント開始までの残り時間を返す
// 払い戻し額の計算に使用する
func (e *Event) HoursUntilStart(now time.Time) float64 {
	return e.StartAt.Sub(now).Hours()
}
