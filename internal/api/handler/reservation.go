package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-ticketing/internal/application"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/event"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/pricing"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/reservation"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
	redisinfra "github.com/sanosuguru/go-event-ticketing/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-ticketing/internal/pkg/metrics"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	EventID     string `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	ZoneID      string `json:"zone_id" validate:"required" example:"660e8400-e29b-41d4-a716-446655440000"`
	Quantity    int    `json:"quantity" validate:"required,min=1" example:"2"`
	SeatNumbers string `json:"seat_numbers" example:"A1, A2"`
}

type ReservationResponse struct {
	ID           string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EventID      string    `json:"event_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID       string    `json:"user_id" example:"user-123"`
	ZoneID       string    `json:"zone_id" example:"660e8400-e29b-41d4-a716-446655440000"`
	ZoneName     string    `json:"zone_name" example:"VIP"`
	Quantity     int       `json:"quantity" example:"2"`
	SeatNumbers  string    `json:"seat_numbers" example:"A1, A2"`
	PricePerSeat float64   `json:"price_per_seat" example:"15000"`
	TotalPrice   float64   `json:"total_price" example:"30000"`
	Status       string    `json:"status" example:"pending"`
	CreatedAt    time.Time `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, EventID: r.EventID, UserID: r.UserID,
		ZoneID: r.ZoneID, ZoneName: r.ZoneName,
		Quantity: r.Quantity, SeatNumbers: r.SeatNumbers,
		PricePerSeat: r.PricePerSeat, TotalPrice: r.TotalPrice,
		Status: string(r.Status), CreatedAt: r.CreatedAt,
	}
}

// CancelReservationResponse はキャンセル結果と払い戻し額を表す
type CancelReservationResponse struct {
	ReservationResponse
	RefundAmount float64 `json:"refund_amount" example:"22500"`
}

func recordReservationOutcome(status string) {
	if m := metrics.Get(); m != nil {
		m.ReservationsTotal.WithLabelValues(status).Inc()
	}
}

// Create godoc
// @Summary 予約を作成
// @Description ゾーンの座席を仮押さえします（15分間有効）
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string "残席不足または受付時間外"
// @Failure 422 {object} map[string]string "ビジネスルール違反"
// @Failure 503 {object} map[string]string "ゾーンが他のユーザーによって処理中"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		EventID: req.EventID, UserID: userID, ZoneID: req.ZoneID,
		Quantity: req.Quantity, SeatNumbers: req.SeatNumbers,
	})
	if err != nil {
		var vErr *reservation.ValidationError
		switch {
		case errors.As(err, &vErr):
			recordReservationOutcome("validation_failed")
			return echo.NewHTTPError(http.StatusUnprocessableEntity, vErr.Error()).SetInternal(err)
		case errors.Is(err, zone.ErrInsufficientCapacity):
			recordReservationOutcome("sold_out")
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, event.ErrEventNotOpen):
			recordReservationOutcome("sold_out")
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, redisinfra.ErrLockNotAcquired):
			recordReservationOutcome("lock_failed")
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, event.ErrEventNotFound), errors.Is(err, zone.ErrZoneNotFound):
			recordReservationOutcome("error")
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			recordReservationOutcome("error")
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	recordReservationOutcome("success")
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

type QuotePriceRequest struct {
	ZoneID             string  `json:"zone_id" validate:"required" example:"660e8400-e29b-41d4-a716-446655440000"`
	Quantity           int     `json:"quantity" validate:"required,min=1" example:"2"`
	ApplyServiceFee    bool    `json:"apply_service_fee" example:"true"`
	ApplyTax           bool    `json:"apply_tax" example:"true"`
	DiscountPercentage float64 `json:"discount_percentage" validate:"min=0,max=100" example:"10"`
}

type QuotePriceResponse struct {
	BasePrice  float64 `json:"base_price" example:"30000"`
	ServiceFee float64 `json:"service_fee" example:"1500"`
	Tax        float64 `json:"tax" example:"1701"`
	Discount   float64 `json:"discount" example:"3150"`
	TotalPrice float64 `json:"total_price" example:"30051"`
}

func toQuotePriceResponse(b pricing.Breakdown) QuotePriceResponse {
	return QuotePriceResponse{
		BasePrice:  b.BasePrice,
		ServiceFee: b.ServiceFee,
		Tax:        b.Tax,
		Discount:   b.Discount,
		TotalPrice: b.TotalPrice,
	}
}

// Quote godoc
// @Summary 料金を見積もる
// @Description ゾーンの単価をもとに手数料・割引・税を含む料金内訳を計算します
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body QuotePriceRequest true "見積もり条件"
// @Success 200 {object} QuotePriceResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/quote [post]
func (h *ReservationHandler) Quote(c echo.Context) error {
	var req QuotePriceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	breakdown, err := h.service.QuotePrice(c.Request().Context(), application.QuotePriceInput{
		ZoneID:             req.ZoneID,
		Quantity:           req.Quantity,
		ApplyServiceFee:    req.ApplyServiceFee,
		ApplyTax:           req.ApplyTax,
		DiscountPercentage: req.DiscountPercentage,
	})
	if err != nil {
		if errors.Is(err, zone.ErrZoneNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toQuotePriceResponse(breakdown))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	r, err := h.service.GetReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// GetUserReservations godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) GetUserReservations(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	reservations, err := h.service.GetUserReservations(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// Confirm godoc
// @Summary 予約を確定
// @Description 仮押さえ中の予約を確定します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c echo.Context) error {
	id := c.Param("id")
	r, err := h.service.ConfirmReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、座席の解放と払い戻し額の計算を行います
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} CancelReservationResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "キャンセル期限超過など"
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	r, refund, err := h.service.CancelReservation(c.Request().Context(), id, time.Now())
	if err != nil {
		var vErr *reservation.ValidationError
		switch {
		case errors.As(err, &vErr):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, vErr.Error()).SetInternal(err)
		case errors.Is(err, reservation.ErrReservationNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if m := metrics.Get(); m != nil {
		m.RefundAmountTotal.Add(refund)
	}
	return c.JSON(http.StatusOK, CancelReservationResponse{
		ReservationResponse: toReservationResponse(r),
		RefundAmount:        refund,
	})
}
