package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/transaction"
	"github.com/sanosuguru/go-event-ticketing/internal/domain/zone"
)

type zoneRow struct {
	ID           string    `db:"id"`
	EventID      string    `db:"event_id"`
	Name         string    `db:"name"`
	PricePerSeat float64   `db:"price_per_seat"`
	Capacity     int       `db:"capacity"`
	Available    int       `db:"available"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	Version      int       `db:"version"`
}

func (r *zoneRow) toEntity() *zone.Zone {
	return &zone.Zone{
		ID: r.ID, EventID: r.EventID, Name: r.Name,
		PricePerSeat: r.PricePerSeat, Capacity: r.Capacity, Available: r.Available,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

type ZoneRepository struct{ db *sqlx.DB }

func NewZoneRepository(db *sqlx.DB) *ZoneRepository { return &ZoneRepository{db: db} }

func (r *ZoneRepository) Create(ctx context.Context, z *zone.Zone) error {
	query := `INSERT INTO zones (event_id, name, price_per_seat, capacity, available, created_at, updated_at, version) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, z.EventID, z.Name, z.PricePerSeat, z.Capacity, z.Available, z.CreatedAt, z.UpdatedAt, z.Version).Scan(&z.ID)
	if err != nil {
		return fmt.Errorf("ゾーン作成に失敗: %w", err)
	}
	return nil
}

func (r *ZoneRepository) CreateBulk(ctx context.Context, zones []*zone.Zone) error {
	if len(zones) == 0 {
		return nil
	}

	// マルチバリューINSERTを構築
	query := `INSERT INTO zones (event_id, name, price_per_seat, capacity, available, created_at, updated_at, version) VALUES `
	args := make([]interface{}, 0, len(zones)*8)
	placeholders := make([]string, 0, len(zones))

	for i, z := range zones {
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, z.EventID, z.Name, z.PricePerSeat, z.Capacity, z.Available, z.CreatedAt, z.UpdatedAt, z.Version)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ゾーン一括作成に失敗: %w", err)
	}
	return nil
}

func (r *ZoneRepository) GetByID(ctx context.Context, id string) (*zone.Zone, error) {
	query := `SELECT id, event_id, name, price_per_seat, capacity, available, created_at, updated_at, version FROM zones WHERE id = $1`
	var row zoneRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, zone.ErrZoneNotFound
		}
		return nil, fmt.Errorf("ゾーン取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ZoneRepository) GetByEventID(ctx context.Context, eventID string) ([]*zone.Zone, error) {
	query := `SELECT id, event_id, name, price_per_seat, capacity, available, created_at, updated_at, version FROM zones WHERE event_id = $1 ORDER BY name`
	var rows []zoneRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("ゾーン一覧取得に失敗: %w", err)
	}
	zones := make([]*zone.Zone, len(rows))
	for i, row := range rows {
		zones[i] = row.toEntity()
	}
	return zones, nil
}

// ReserveCapacity はゾーンの残席を減らす。残席不足の場合は何も更新しない
func (r *ZoneRepository) ReserveCapacity(ctx context.Context, tx transaction.Tx, zoneID string, quantity int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("無効なトランザクション")
	}

	query := `UPDATE zones SET available = available - $2, updated_at = NOW(), version = version + 1 WHERE id = $1 AND available >= $2`
	result, err := sqlxTx.ExecContext(ctx, query, zoneID, quantity)
	if err != nil {
		return fmt.Errorf("残席確保に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return zone.ErrInsufficientCapacity
	}
	return nil
}

// ReleaseCapacity はゾーンの残席を戻す（定員を超えない範囲で）
func (r *ZoneRepository) ReleaseCapacity(ctx context.Context, tx transaction.Tx, zoneID string, quantity int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("無効なトランザクション")
	}

	query := `UPDATE zones SET available = LEAST(available + $2, capacity), updated_at = NOW(), version = version + 1 WHERE id = $1`
	result, err := sqlxTx.ExecContext(ctx, query, zoneID, quantity)
	if err != nil {
		return fmt.Errorf("残席解放に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return zone.ErrZoneNotFound
	}
	return nil
}

func (r *ZoneRepository) CountAvailableByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COALESCE(SUM(available), 0) FROM zones WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, fmt.Errorf("残席数取得に失敗: %w", err)
	}
	return count, nil
}

var _ zone.Repository = (*ZoneRepository)(nil)
