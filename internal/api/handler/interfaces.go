package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-event-ticketing/internal/application"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/event"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/pricing"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/reservation"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ZoneServiceInterface はゾーンサービスのインターフェース
type ZoneServiceInterface interface {
	CreateZone(ctx context.Context, input application.CreateZoneInput) (*zone.Zone, error)
	CreateBulkZones(ctx context.Context, input application.CreateBulkZonesInput) ([]*zone.Zone, error)
	GetZone(ctx context.Context, id string) (*zone.Zone, error)
	GetZonesByEvent(ctx context.Context, eventID string) ([]*zone.Zone, error)
	CountZoneAvailability(ctx context.Context, zoneID string) (int, error)
	CountEventAvailability(ctx context.Context, eventID string) (int, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	QuotePrice(ctx context.Context, input application.QuotePriceInput) (pricing.Breakdown, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error)
	ConfirmReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, id string, now time.Time) (*reservation.Reservation, float64, error)
	ExpireStaleReservations(ctx context.Context, olderThan time.Duration) (int, error)
	CompleteReservations(ctx context.Context, now time.Time) (int, error)
}
