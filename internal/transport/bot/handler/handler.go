package handler

import (
	"context"
	"math/big"
	"time"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
)

const pageSize = 10

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type auctionService interface {
	Admin(ctx context.Context) (value.Address, error)
	NextAuctionID(ctx context.Context) (uint64, error)
	FeePolicy(ctx context.Context) (string, error)
	GetAuction(ctx context.Context, id uint64) (*entity.Auction, error)
	ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error)
	EndAuction(ctx context.Context, caller value.Address, id uint64) (auction.Settlement, error)
	FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error)
}

type sweeper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
	Sweep(ctx context.Context) (int, error)
}

type PriceReader interface {
	GetPrice(ctx context.Context, currency value.Currency) (*big.Int, error)
}

// PriceReaders находит читателя цен по его адресу.
type PriceReaders func(address value.Address) (PriceReader, bool)

type Handler struct {
	svc     auctionService
	sweeper sweeper
	prices  PriceReaders
	now     func() time.Time

	// sweepCtx живёт дольше обработчика команды /startsweep.
	sweepCtx context.Context
}

func New(ctx context.Context, svc auctionService, sweeper sweeper, prices PriceReaders) *Handler {
	return &Handler{
		svc:      svc,
		sweeper:  sweeper,
		prices:   prices,
		now:      time.Now,
		sweepCtx: ctx,
	}
}
