package zone

import (
	"context"

	"github.com/sanosuguru/go-event-ticketing/internal/domain/transaction"
)

// Repository はゾーンリポジトリのインターフェース
type Repository interface {
	// Create は新しいゾーンを作成する
	Create(ctx context.Context, zone *Zone) error

	// CreateBulk は複数のゾーンを一括作成する
	CreateBulk(ctx context.Context, zones []*Zone) error

	// GetByID はIDからゾーンを取得する
	GetByID(ctx context.Context, id string) (*Zone, error)

	// GetByEventID はイベントIDからゾーン一覧を取得する
	GetByEventID(ctx context.Context, eventID string) ([]*Zone, error)

	// ReserveCapacity は残席数を減らして座席を確保する（トランザクション必須）
	ReserveCapacity(ctx context.Context, tx transaction.Tx, zoneID string, quantity int) error

	// ReleaseCapacity は確保済みの座席を解放する（トランザクション必須）
	ReleaseCapacity(ctx context.Context, tx transaction.Tx, zoneID string, quantity int) error

	// CountAvailableByEventID はイベントの残席数合計を取得する
	CountAvailableByEventID(ctx context.Context, eventID string) (int, error)
}
