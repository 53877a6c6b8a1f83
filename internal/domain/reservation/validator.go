package reservation

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MaxSeatsPerReservation は1予約あたりの最大座席数
	MaxSeatsPerReservation = 10

	// CancellationDeadline は予約作成時刻から数えたキャンセル期限
	// イベント開始時刻ではなく作成時刻が基準（元仕様の挙動を維持）
	CancellationDeadline = 24 * time.Hour
)

// Validator は予約のビジネスルール検証を行う
// 状態を持たない純粋な検証器で、時刻は常に呼び出し側から渡される
type Validator struct{}

// NewValidator は Validator を作成する
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateReservation は予約全体の構造的・業務的な正しさを検証する
// 最初の違反で打ち切らず、全ての違反を収集して返す
func (v *Validator) ValidateReservation(r *Reservation) ValidationResult {
	var errs []FieldError

	if r.Quantity <= 0 {
		errs = append(errs, FieldError{Field: "quantity", Message: "Quantity must be greater than zero"})
	}
	if r.Quantity > MaxSeatsPerReservation {
		errs = append(errs, FieldError{
			Field:   "quantity",
			Message: fmt.Sprintf("Quantity cannot exceed %d seats per reservation", MaxSeatsPerReservation),
		})
	}
	if r.PricePerSeat < 0 {
		errs = append(errs, FieldError{Field: "pricePerSeat", Message: "Price per seat cannot be negative"})
	}
	if r.TotalPrice < 0 {
		errs = append(errs, FieldError{Field: "totalPrice", Message: "Total price cannot be negative"})
	}
	// 浮動小数点の完全一致比較（元仕様の挙動を維持、DESIGN.md 参照）
	if expected := r.PricePerSeat * float64(r.Quantity); r.TotalPrice != expected {
		errs = append(errs, FieldError{
			Field:   "totalPrice",
			Message: fmt.Sprintf("Total price does not match price per seat × quantity (expected %v)", expected),
		})
	}
	if strings.TrimSpace(r.EventID) == "" {
		errs = append(errs, FieldError{Field: "eventId", Message: "Event ID cannot be empty"})
	}
	if strings.TrimSpace(r.UserID) == "" {
		errs = append(errs, FieldError{Field: "userId", Message: "User ID cannot be empty"})
	}
	if strings.TrimSpace(r.ZoneID) == "" {
		errs = append(errs, FieldError{Field: "zoneId", Message: "Zone ID cannot be empty"})
	}
	if strings.TrimSpace(r.SeatNumbers) == "" {
		errs = append(errs, FieldError{Field: "seatNumbers", Message: "Seat numbers cannot be empty"})
	}

	if len(errs) == 0 {
		return Success{}
	}
	return MultipleErrors{Errors: errs}
}

// ValidateCancellation は予約のキャンセル可否を検証する
// 全ての条件を評価し、違反をまとめて返す
func (v *Validator) ValidateCancellation(r *Reservation, now time.Time) ValidationResult {
	var errs []FieldError

	if r.Status == StatusCancelled {
		errs = append(errs, FieldError{Field: "status", Message: "Reservation is already cancelled"})
	}
	if r.Status == StatusCompleted {
		errs = append(errs, FieldError{Field: "status", Message: "Cannot cancel a completed reservation"})
	}
	if now.After(r.CreatedAt.Add(CancellationDeadline)) {
		errs = append(errs, FieldError{Field: "time", Message: "Cancellation deadline has passed"})
	}

	if len(errs) == 0 {
		return Success{}
	}
	return MultipleErrors{Errors: errs}
}

// ValidateSeatNumbers は座席番号の割り当てを検証する
// 他の検証と異なり、最初の違反で打ち切って単一エラーを返す
func (v *Validator) ValidateSeatNumbers(seatNumbers string, expectedQuantity int) ValidationResult {
	if strings.TrimSpace(seatNumbers) == "" {
		return Error{Message: "Seat numbers cannot be empty", Field: "seatNumbers"}
	}

	tokens := strings.Split(seatNumbers, ",")
	seats := make([]string, 0, len(tokens))
	for _, t := range tokens {
		seats = append(seats, strings.TrimSpace(t))
	}

	if len(seats) != expectedQuantity {
		return Error{
			Message: fmt.Sprintf("Number of seats (%d) does not match quantity (%d)", len(seats), expectedQuantity),
			Field:   "seatNumbers",
		}
	}

	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		if _, ok := seen[s]; ok {
			return Error{Message: "Duplicate seat numbers found", Field: "seatNumbers"}
		}
		seen[s] = struct{}{}
	}

	return Success{}
}
