package worker

import (
	"context"
	"time"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Settler: операции реестра, нужные фоновому завершению аукционов.
type Settler interface {
	Admin(ctx context.Context) (value.Address, error)
	GetAuction(ctx context.Context, id uint64) (*entity.Auction, error)
	ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error)
	EndAuction(ctx context.Context, caller value.Address, id uint64) (auction.Settlement, error)
}

// Источники фонового завершения для метрик.
const (
	sourceQueue   = "queue"
	sourceSweeper = "sweeper"
)

// Итоги попытки завершения для метрик.
const (
	resultEnded   = "ended"
	resultSkipped = "skipped"
	resultEarly   = "early"
	resultFailed  = "failed"
)

func expired(a *entity.Auction, now time.Time) bool {
	return a.State(now) == entity.StateExpired
}
