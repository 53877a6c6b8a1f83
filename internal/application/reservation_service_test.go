package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/event"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/reservation"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/transaction"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
	redisinfra "github.com/sanosuguru/go-event-ticketing/internal/infrastructure/redis"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) Update(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetStalePending(ctx context.Context, olderThan time.Duration) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetConfirmedForEndedEvents(ctx context.Context, now time.Time) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

// MockZoneRepository implements zone.Repository
type MockZoneRepository struct {
	mock.Mock
}

func (m *MockZoneRepository) Create(ctx context.Context, z *zone.Zone) error {
	args := m.Called(ctx, z)
	return args.Error(0)
}

func (m *MockZoneRepository) CreateBulk(ctx context.Context, zones []*zone.Zone) error {
	args := m.Called(ctx, zones)
	return args.Error(0)
}

func (m *MockZoneRepository) GetByID(ctx context.Context, id string) (*zone.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zone.Zone), args.Error(1)
}

func (m *MockZoneRepository) GetByEventID(ctx context.Context, eventID string) ([]*zone.Zone, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*zone.Zone), args.Error(1)
}

func (m *MockZoneRepository) ReserveCapacity(ctx context.Context, tx transaction.Tx, zoneID string, quantity int) error {
	args := m.Called(ctx, tx, zoneID, quantity)
	return args.Error(0)
}

func (m *MockZoneRepository) ReleaseCapacity(ctx context.Context, tx transaction.Tx, zoneID string, quantity int) error {
	args := m.Called(ctx, tx, zoneID, quantity)
	return args.Error(0)
}

func (m *MockZoneRepository) CountAvailableByEventID(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

// MockEventRepository implements event.Repository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, e *event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLockManager implements redisinfra.LockManagerInterface
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

func (m *MockLockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryInterval time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryInterval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLock) Extend(ctx context.Context, ttl time.Duration) error {
	args := m.Called(ctx, ttl)
	return args.Error(0)
}

// MockAvailabilityCache implements redisinfra.AvailabilityCacheInterface
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) GetAvailableCount(ctx context.Context, zoneID string) (int, error) {
	args := m.Called(ctx, zoneID)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailabilityCache) SetAvailableCount(ctx context.Context, zoneID string, count int, ttl time.Duration) error {
	args := m.Called(ctx, zoneID, count, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, zoneID string) error {
	args := m.Called(ctx, zoneID)
	return args.Error(0)
}

// === Test helper ===
type testDeps struct {
	txManager   *MockTxManager
	tx          *MockTx
	resRepo     *MockReservationRepository
	zoneRepo    *MockZoneRepository
	eventRepo   *MockEventRepository
	lockManager *MockLockManager
	lock        *MockLock
	cache       *MockAvailabilityCache
	service     *ReservationService
}

func newTestDeps() *testDeps {
	txm := new(MockTxManager)
	tx := new(MockTx)
	resRepo := new(MockReservationRepository)
	zoneRepo := new(MockZoneRepository)
	eventRepo := new(MockEventRepository)
	lockManager := new(MockLockManager)
	lock := new(MockLock)
	cache := new(MockAvailabilityCache)

	service := NewReservationService(txm, resRepo, zoneRepo, eventRepo, lockManager, cache)

	return &testDeps{
		txManager:   txm,
		tx:          tx,
		resRepo:     resRepo,
		zoneRepo:    zoneRepo,
		eventRepo:   eventRepo,
		lockManager: lockManager,
		lock:        lock,
		cache:       cache,
		service:     service,
	}
}

func openEvent() *event.Event {
	return &event.Event{
		ID:      "event-1",
		Name:    "Test Event",
		StartAt: time.Now().Add(1 * time.Hour),
		EndAt:   time.Now().Add(2 * time.Hour),
	}
}

func vipZone() *zone.Zone {
	return &zone.Zone{
		ID:           "zone-1",
		EventID:      "event-1",
		Name:         "VIP",
		PricePerSeat: 100.0,
		Capacity:     50,
		Available:    10,
	}
}

// === Tests ===

func TestReservationService_CreateReservation_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    2,
		SeatNumbers: "A1, A2",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(vipZone(), nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	deps.resRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
	deps.zoneRepo.On("ReserveCapacity", ctx, deps.tx, "zone-1", 2).Return(nil)

	deps.cache.On("Invalidate", ctx, "zone-1").Return(nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "event-1", result.EventID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, "VIP", result.ZoneName)
	assert.Equal(t, 100.0, result.PricePerSeat)
	assert.Equal(t, 200.0, result.TotalPrice)
	assert.Equal(t, reservation.StatusPending, result.Status)

	deps.txManager.AssertExpectations(t)
	deps.resRepo.AssertExpectations(t)
	deps.zoneRepo.AssertExpectations(t)
	deps.eventRepo.AssertExpectations(t)
	deps.lockManager.AssertExpectations(t)
}

func TestReservationService_CreateReservation_LockFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(nil, redisinfra.ErrLockNotAcquired)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "他のユーザーによって処理中")
}

func TestReservationService_CreateReservation_LockGenericError(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(nil, errors.New("redis connection error"))

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "ロック取得に失敗")
}

func TestReservationService_CreateReservation_EventNotOpen(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	closedEvent := &event.Event{
		ID:      "event-1",
		Name:    "Past Event",
		StartAt: time.Now().Add(-1 * time.Hour),
		EndAt:   time.Now().Add(1 * time.Hour),
	}
	deps.eventRepo.On("GetByID", ctx, "event-1").Return(closedEvent, nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, event.ErrEventNotOpen))
}

func TestReservationService_CreateReservation_InsufficientCapacity(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    5,
		SeatNumbers: "A1, A2, A3, A4, A5",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)

	z := vipZone()
	z.Available = 3
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(z, nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, zone.ErrInsufficientCapacity))
}

func TestReservationService_CreateReservation_ZoneBelongsToOtherEvent(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)

	z := vipZone()
	z.EventID = "other-event"
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(z, nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, zone.ErrZoneNotFound))
}

func TestReservationService_CreateReservation_SeatNumbersMismatch(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// 数量3に対して座席番号が2つ
	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    3,
		SeatNumbers: "A1, A2",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(vipZone(), nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)

	var vErr *reservation.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Error(), "does not match quantity")
	deps.txManager.AssertNotCalled(t, "Begin")
}

func TestReservationService_CreateReservation_TooManySeats(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    11,
		SeatNumbers: "A1,A2,A3,A4,A5,A6,A7,A8,A9,A10,A11",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)

	z := vipZone()
	z.Available = 20
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(z, nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)

	var vErr *reservation.ValidationError
	require.True(t, errors.As(err, &vErr))
}

func TestReservationService_CreateReservation_TransactionBeginFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(vipZone(), nil)

	deps.txManager.On("Begin", ctx).Return(nil, errors.New("db connection failed"))

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "トランザクション開始に失敗")
}

func TestReservationService_CreateReservation_ReserveCapacityFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(vipZone(), nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	deps.resRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
	deps.zoneRepo.On("ReserveCapacity", ctx, deps.tx, "zone-1", 1).Return(zone.ErrInsufficientCapacity)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, zone.ErrInsufficientCapacity))
}

func TestReservationService_CreateReservation_CommitFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	input := CreateReservationInput{
		EventID:     "event-1",
		UserID:      "user-1",
		ZoneID:      "zone-1",
		Quantity:    1,
		SeatNumbers: "A1",
	}

	deps.lockManager.On("AcquireLockWithRetry", ctx, "zone:zone-1", 10*time.Second, 3, 100*time.Millisecond).
		Return(deps.lock, nil)
	deps.lock.On("Release", ctx).Return(nil)

	deps.eventRepo.On("GetByID", ctx, "event-1").Return(openEvent(), nil)
	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(vipZone(), nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(errors.New("commit failed"))

	deps.resRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
	deps.zoneRepo.On("ReserveCapacity", ctx, deps.tx, "zone-1", 1).Return(nil)

	result, err := deps.service.CreateReservation(ctx, input)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "コミットに失敗")
}

func TestReservationService_QuotePrice(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.zoneRepo.On("GetByID", ctx, "zone-1").Return(vipZone(), nil)

	breakdown, err := deps.service.QuotePrice(ctx, QuotePriceInput{
		ZoneID:          "zone-1",
		Quantity:        2,
		ApplyServiceFee: true,
		ApplyTax:        true,
	})

	require.NoError(t, err)
	assert.InDelta(t, 200.0, breakdown.BasePrice, 1e-9)
	assert.InDelta(t, 10.0, breakdown.ServiceFee, 1e-9)
	assert.InDelta(t, 12.6, breakdown.Tax, 1e-9)
	assert.InDelta(t, 222.6, breakdown.TotalPrice, 1e-9)
}

func TestReservationService_QuotePrice_ZoneNotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.zoneRepo.On("GetByID", ctx, "nonexistent").Return(nil, zone.ErrZoneNotFound)

	_, err := deps.service.QuotePrice(ctx, QuotePriceInput{ZoneID: "nonexistent", Quantity: 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, zone.ErrZoneNotFound))
}

func TestReservationService_GetReservation(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	expected := &reservation.Reservation{
		ID:      "res-1",
		EventID: "event-1",
		UserID:  "user-1",
	}
	deps.resRepo.On("GetByID", ctx, "res-1").Return(expected, nil)

	result, err := deps.service.GetReservation(ctx, "res-1")

	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestReservationService_GetUserReservations(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	expected := []*reservation.Reservation{
		{ID: "res-1", UserID: "user-1"},
		{ID: "res-2", UserID: "user-1"},
	}
	// limit 0 はデフォルトの20に補正される
	deps.resRepo.On("GetByUserID", ctx, "user-1", 20, 0).Return(expected, nil)

	result, err := deps.service.GetUserReservations(ctx, "user-1", 0, 0)

	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestReservationService_ConfirmReservation_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	res := &reservation.Reservation{
		ID:      "res-1",
		EventID: "event-1",
		UserID:  "user-1",
		ZoneID:  "zone-1",
		Status:  reservation.StatusPending,
	}
	deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)

	result, err := deps.service.ConfirmReservation(ctx, "res-1")

	require.NoError(t, err)
	assert.Equal(t, reservation.StatusConfirmed, result.Status)
}

func TestReservationService_ConfirmReservation_Errors(t *testing.T) {
	t.Run("予約が見つからない", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("GetByID", ctx, "nonexistent").Return(nil, reservation.ErrReservationNotFound)

		result, err := deps.service.ConfirmReservation(ctx, "nonexistent")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, reservation.ErrReservationNotFound))
	})

	t.Run("保留中でない予約は確定できない", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		res := &reservation.Reservation{
			ID:     "res-1",
			Status: reservation.StatusCancelled,
		}
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		result, err := deps.service.ConfirmReservation(ctx, "res-1")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, reservation.ErrReservationNotPending))
	})

	t.Run("コミット失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		res := &reservation.Reservation{
			ID:     "res-1",
			Status: reservation.StatusPending,
		}
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(errors.New("commit error"))
		deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)

		result, err := deps.service.ConfirmReservation(ctx, "res-1")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "コミットに失敗")
	})
}

func TestReservationService_CancelReservation(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	confirmedReservation := func() *reservation.Reservation {
		return &reservation.Reservation{
			ID:           "res-1",
			EventID:      "event-1",
			UserID:       "user-1",
			ZoneID:       "zone-1",
			ZoneName:     "VIP",
			Quantity:     2,
			SeatNumbers:  "A1, A2",
			PricePerSeat: 100.0,
			TotalPrice:   200.0,
			Status:       reservation.StatusConfirmed,
			CreatedAt:    createdAt,
		}
	}

	t.Run("開始72時間以上前は全額払い戻し", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		now := createdAt.Add(12 * time.Hour)

		res := confirmedReservation()
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		ev := &event.Event{
			ID:      "event-1",
			StartAt: now.Add(100 * time.Hour),
			EndAt:   now.Add(103 * time.Hour),
		}
		deps.eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)

		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
		deps.zoneRepo.On("ReleaseCapacity", ctx, deps.tx, "zone-1", 2).Return(nil)
		deps.cache.On("Invalidate", ctx, "zone-1").Return(nil)

		result, refund, err := deps.service.CancelReservation(ctx, "res-1", now)

		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled, result.Status)
		assert.InDelta(t, 200.0, refund, 1e-9)
	})

	t.Run("開始48時間前は75%払い戻し", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		now := createdAt.Add(1 * time.Hour)

		res := confirmedReservation()
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		ev := &event.Event{
			ID:      "event-1",
			StartAt: now.Add(48 * time.Hour),
			EndAt:   now.Add(51 * time.Hour),
		}
		deps.eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)

		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
		deps.zoneRepo.On("ReleaseCapacity", ctx, deps.tx, "zone-1", 2).Return(nil)
		deps.cache.On("Invalidate", ctx, "zone-1").Return(nil)

		_, refund, err := deps.service.CancelReservation(ctx, "res-1", now)

		require.NoError(t, err)
		assert.InDelta(t, 150.0, refund, 1e-9)
	})

	t.Run("開始12時間前は払い戻しなし", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		now := createdAt.Add(1 * time.Hour)

		res := confirmedReservation()
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		ev := &event.Event{
			ID:      "event-1",
			StartAt: now.Add(12 * time.Hour),
			EndAt:   now.Add(15 * time.Hour),
		}
		deps.eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)

		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
		deps.zoneRepo.On("ReleaseCapacity", ctx, deps.tx, "zone-1", 2).Return(nil)
		deps.cache.On("Invalidate", ctx, "zone-1").Return(nil)

		_, refund, err := deps.service.CancelReservation(ctx, "res-1", now)

		require.NoError(t, err)
		assert.Equal(t, 0.0, refund)
	})

	t.Run("キャンセル済みはValidationError", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		res := confirmedReservation()
		res.Status = reservation.StatusCancelled
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		result, refund, err := deps.service.CancelReservation(ctx, "res-1", createdAt.Add(1*time.Hour))

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, 0.0, refund)

		var vErr *reservation.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Contains(t, vErr.Error(), "already cancelled")
	})

	t.Run("作成から24時間超過はValidationError", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		res := confirmedReservation()
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		result, _, err := deps.service.CancelReservation(ctx, "res-1", createdAt.Add(30*time.Hour))

		require.Error(t, err)
		assert.Nil(t, result)

		var vErr *reservation.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Contains(t, vErr.Error(), "deadline has passed")
		deps.txManager.AssertNotCalled(t, "Begin")
	})

	t.Run("予約が見つからない", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("GetByID", ctx, "nonexistent").Return(nil, reservation.ErrReservationNotFound)

		result, _, err := deps.service.CancelReservation(ctx, "nonexistent", time.Now())

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, reservation.ErrReservationNotFound))
	})

	t.Run("コミット失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		now := createdAt.Add(1 * time.Hour)

		res := confirmedReservation()
		deps.resRepo.On("GetByID", ctx, "res-1").Return(res, nil)

		ev := &event.Event{
			ID:      "event-1",
			StartAt: now.Add(100 * time.Hour),
			EndAt:   now.Add(103 * time.Hour),
		}
		deps.eventRepo.On("GetByID", ctx, "event-1").Return(ev, nil)

		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(errors.New("commit error"))
		deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
		deps.zoneRepo.On("ReleaseCapacity", ctx, deps.tx, "zone-1", 2).Return(nil)

		result, _, err := deps.service.CancelReservation(ctx, "res-1", now)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "コミットに失敗")
	})
}

func TestReservationService_ExpireStaleReservations(t *testing.T) {
	olderThan := 15 * time.Minute

	t.Run("保留中の予約を期限切れにする", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		stale := []*reservation.Reservation{
			{ID: "res-1", EventID: "event-1", ZoneID: "zone-1", Quantity: 2, Status: reservation.StatusPending},
			{ID: "res-2", EventID: "event-2", ZoneID: "zone-2", Quantity: 1, Status: reservation.StatusPending},
		}
		deps.resRepo.On("GetStalePending", ctx, olderThan).Return(stale, nil)

		tx1 := new(MockTx)
		deps.txManager.On("Begin", ctx).Return(tx1, nil).Once()
		tx1.On("Rollback").Return(nil)
		tx1.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, tx1, mock.AnythingOfType("*reservation.Reservation")).Return(nil).Once()
		deps.zoneRepo.On("ReleaseCapacity", ctx, tx1, "zone-1", 2).Return(nil).Once()

		tx2 := new(MockTx)
		deps.txManager.On("Begin", ctx).Return(tx2, nil).Once()
		tx2.On("Rollback").Return(nil)
		tx2.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, tx2, mock.AnythingOfType("*reservation.Reservation")).Return(nil).Once()
		deps.zoneRepo.On("ReleaseCapacity", ctx, tx2, "zone-2", 1).Return(nil).Once()

		deps.cache.On("Invalidate", ctx, "zone-1").Return(nil)
		deps.cache.On("Invalidate", ctx, "zone-2").Return(nil)

		count, err := deps.service.ExpireStaleReservations(ctx, olderThan)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, reservation.StatusExpired, stale[0].Status)
		assert.Equal(t, reservation.StatusExpired, stale[1].Status)
	})

	t.Run("取得失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("GetStalePending", ctx, olderThan).Return(nil, errors.New("db error"))

		count, err := deps.service.ExpireStaleReservations(ctx, olderThan)

		require.Error(t, err)
		assert.Equal(t, 0, count)
		assert.Contains(t, err.Error(), "期限切れ予約取得に失敗")
	})

	t.Run("保留中でない予約はスキップ", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		stale := []*reservation.Reservation{
			{ID: "res-1", ZoneID: "zone-1", Quantity: 1, Status: reservation.StatusCancelled},
		}
		deps.resRepo.On("GetStalePending", ctx, olderThan).Return(stale, nil)

		count, err := deps.service.ExpireStaleReservations(ctx, olderThan)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("一部の予約でエラー発生", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		stale := []*reservation.Reservation{
			{ID: "res-1", ZoneID: "zone-1", Quantity: 1, Status: reservation.StatusPending},
			{ID: "res-2", ZoneID: "zone-2", Quantity: 1, Status: reservation.StatusPending},
		}
		deps.resRepo.On("GetStalePending", ctx, olderThan).Return(stale, nil)

		// 1件目はBegin失敗
		deps.txManager.On("Begin", ctx).Return(nil, errors.New("begin error")).Once()

		// 2件目は成功
		tx2 := new(MockTx)
		deps.txManager.On("Begin", ctx).Return(tx2, nil).Once()
		tx2.On("Rollback").Return(nil)
		tx2.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, tx2, mock.AnythingOfType("*reservation.Reservation")).Return(nil).Once()
		deps.zoneRepo.On("ReleaseCapacity", ctx, tx2, "zone-2", 1).Return(nil).Once()
		deps.cache.On("Invalidate", ctx, "zone-2").Return(nil)

		count, err := deps.service.ExpireStaleReservations(ctx, olderThan)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestReservationService_CompleteReservations(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	t.Run("終了済みイベントの確定予約を完了にする", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		confirmed := []*reservation.Reservation{
			{ID: "res-1", EventID: "event-1", Status: reservation.StatusConfirmed},
			{ID: "res-2", EventID: "event-1", Status: reservation.StatusConfirmed},
		}
		deps.resRepo.On("GetConfirmedForEndedEvents", ctx, now).Return(confirmed, nil)

		tx1 := new(MockTx)
		deps.txManager.On("Begin", ctx).Return(tx1, nil).Once()
		tx1.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, tx1, mock.AnythingOfType("*reservation.Reservation")).Return(nil).Once()

		tx2 := new(MockTx)
		deps.txManager.On("Begin", ctx).Return(tx2, nil).Once()
		tx2.On("Commit").Return(nil)
		deps.resRepo.On("Update", ctx, tx2, mock.AnythingOfType("*reservation.Reservation")).Return(nil).Once()

		count, err := deps.service.CompleteReservations(ctx, now)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, reservation.StatusCompleted, confirmed[0].Status)
		assert.Equal(t, reservation.StatusCompleted, confirmed[1].Status)
	})

	t.Run("確定済みでない予約はスキップ", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		confirmed := []*reservation.Reservation{
			{ID: "res-1", Status: reservation.StatusPending},
		}
		deps.resRepo.On("GetConfirmedForEndedEvents", ctx, now).Return(confirmed, nil)

		count, err := deps.service.CompleteReservations(ctx, now)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("取得失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("GetConfirmedForEndedEvents", ctx, now).Return(nil, errors.New("db error"))

		count, err := deps.service.CompleteReservations(ctx, now)

		require.Error(t, err)
		assert.Equal(t, 0, count)
	})
}
