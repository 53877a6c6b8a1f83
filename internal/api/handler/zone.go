package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-ticketing/internal/application"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
)

type ZoneHandler struct {
	service ZoneServiceInterface
}

func NewZoneHandler(s ZoneServiceInterface) *ZoneHandler {
	return &ZoneHandler{service: s}
}

type CreateZoneRequest struct {
	Name         string  `json:"name" validate:"required"`
	PricePerSeat float64 `json:"price_per_seat" validate:"min=0"`
	Capacity     int     `json:"capacity" validate:"required,min=1"`
}

type CreateBulkZonesRequest struct {
	Zones []CreateZoneRequest `json:"zones" validate:"required,min=1,dive"`
}

type ZoneResponse struct {
	ID           string  `json:"id"`
	EventID      string  `json:"event_id"`
	Name         string  `json:"name"`
	PricePerSeat float64 `json:"price_per_seat"`
	Capacity     int     `json:"capacity"`
	Available    int     `json:"available"`
}

func toZoneResponse(z *zone.Zone) ZoneResponse {
	return ZoneResponse{
		ID: z.ID, EventID: z.EventID, Name: z.Name,
		PricePerSeat: z.PricePerSeat, Capacity: z.Capacity, Available: z.Available,
	}
}

// Create godoc
// @Summary ゾーンを作成
// @Description イベントに席種（ゾーン）を追加します
// @Tags zones
// @Accept json
// @Produce json
// @Param event_id path string true "イベントID"
// @Param request body CreateZoneRequest true "ゾーン情報"
// @Success 201 {object} ZoneResponse
// @Failure 400 {object} map[string]string
// @Router /events/{event_id}/zones [post]
func (h *ZoneHandler) Create(c echo.Context) error {
	eventID := c.Param("event_id")
	var req CreateZoneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "無効なリクエスト"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	z, err := h.service.CreateZone(c.Request().Context(), application.CreateZoneInput{
		EventID: eventID, Name: req.Name, PricePerSeat: req.PricePerSeat, Capacity: req.Capacity,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, toZoneResponse(z))
}

// CreateBulk godoc
// @Summary ゾーンを一括作成
// @Description イベントに複数の席種（ゾーン）を一括追加します
// @Tags zones
// @Accept json
// @Produce json
// @Param event_id path string true "イベントID"
// @Param request body CreateBulkZonesRequest true "ゾーン一覧"
// @Success 201 {array} ZoneResponse
// @Failure 400 {object} map[string]string
// @Router /events/{event_id}/zones/bulk [post]
func (h *ZoneHandler) CreateBulk(c echo.Context) error {
	eventID := c.Param("event_id")
	var req CreateBulkZonesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "無効なリクエスト"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	inputs := make([]application.CreateZoneInput, len(req.Zones))
	for i, z := range req.Zones {
		inputs[i] = application.CreateZoneInput{Name: z.Name, PricePerSeat: z.PricePerSeat, Capacity: z.Capacity}
	}
	zones, err := h.service.CreateBulkZones(c.Request().Context(), application.CreateBulkZonesInput{
		EventID: eventID, Zones: inputs,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	resp := make([]ZoneResponse, len(zones))
	for i, z := range zones {
		resp[i] = toZoneResponse(z)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetByID godoc
// @Summary ゾーンを取得
// @Description 指定IDのゾーンを取得します
// @Tags zones
// @Produce json
// @Param id path string true "ゾーンID"
// @Success 200 {object} ZoneResponse
// @Failure 404 {object} map[string]string
// @Router /zones/{id} [get]
func (h *ZoneHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	z, err := h.service.GetZone(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, zone.ErrZoneNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "ゾーンが見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toZoneResponse(z))
}

// GetByEvent godoc
// @Summary イベントのゾーン一覧を取得
// @Description イベントに属するゾーンの一覧を取得します
// @Tags zones
// @Produce json
// @Param event_id path string true "イベントID"
// @Success 200 {array} ZoneResponse
// @Router /events/{event_id}/zones [get]
func (h *ZoneHandler) GetByEvent(c echo.Context) error {
	eventID := c.Param("event_id")
	zones, err := h.service.GetZonesByEvent(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	resp := make([]ZoneResponse, len(zones))
	for i, z := range zones {
		resp[i] = toZoneResponse(z)
	}
	return c.JSON(http.StatusOK, resp)
}

// CountAvailability godoc
// @Summary ゾーンの残席数を取得
// @Description ゾーンの残席数を返します（キャッシュ優先）
// @Tags zones
// @Produce json
// @Param id path string true "ゾーンID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string
// @Router /zones/{id}/availability [get]
func (h *ZoneHandler) CountAvailability(c echo.Context) error {
	id := c.Param("id")
	count, err := h.service.CountZoneAvailability(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, zone.ErrZoneNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "ゾーンが見つかりません"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int{"available": count})
}

// CountEventAvailability godoc
// @Summary イベント全体の残席数を取得
// @Description イベントに属する全ゾーンの残席数合計を返します
// @Tags zones
// @Produce json
// @Param event_id path string true "イベントID"
// @Success 200 {object} map[string]int
// @Router /events/{event_id}/availability [get]
func (h *ZoneHandler) CountEventAvailability(c echo.Context) error {
	eventID := c.Param("event_id")
	count, err := h.service.CountEventAvailability(c.Request().Context(), eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int{"available": count})
}
