package auction

import (
	"context"
	"math/big"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
)

// Meta: глобальное состояние реестра, переживающее замену логики.
type Meta struct {
	Admin         value.Address
	NextAuctionID uint64
	FeePolicy     string
}

type StateReader interface {
	// Meta возвращает ok=false, пока реестр не инициализирован.
	Meta(ctx context.Context) (meta Meta, ok bool, err error)
	GetAuction(ctx context.Context, id uint64) (*entity.Auction, error)
	ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error)
	FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error)
	ListEvents(ctx context.Context, auctionID uint64) ([]entity.Event, error)
}

type Tx interface {
	StateReader
	SetMeta(ctx context.Context, meta Meta) error
	InsertAuction(ctx context.Context, a *entity.Auction) error
	UpdateAuction(ctx context.Context, a *entity.Auction) error
	SetFeeBalance(ctx context.Context, currency value.Currency, amount *big.Int) error
	AppendEvents(ctx context.Context, events ...entity.Event) error
}

// Store: хранилище состояния. Чтения вне WithinTx видят только
// зафиксированные данные.
type Store interface {
	StateReader
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type PriceOracle interface {
	IsPriceFeedSet(currency value.Currency) bool
	GetValueInUSD(ctx context.Context, currency value.Currency, amount *big.Int, decimals uint8) (*big.Int, error)
}

type OracleResolver interface {
	Resolve(address value.Address) (PriceOracle, bool)
}

type OracleResolverFunc func(address value.Address) (PriceOracle, bool)

func (f OracleResolverFunc) Resolve(address value.Address) (PriceOracle, bool) {
	return f(address)
}

// FromDirectory ищет PriceOracle среди зарегистрированных Reader.
func FromDirectory(d *oracle.Directory) OracleResolver {
	return OracleResolverFunc(func(address value.Address) (PriceOracle, bool) {
		r, ok := d.Get(address)
		if !ok {
			return nil, false
		}
		return r, true
	})
}

type NFTCustody interface {
	OwnerOf(ctx context.Context, contract value.Address, tokenID *big.Int) (value.Address, error)
	IsApproved(ctx context.Context, contract value.Address, tokenID *big.Int, operator value.Address) (bool, error)
	TransferNFT(ctx context.Context, contract value.Address, operator, from, to value.Address, tokenID *big.Int) error
}

type TokenBank interface {
	Decimals(ctx context.Context, token value.Currency) (uint8, error)
	TransferFrom(ctx context.Context, token value.Currency, spender, from, to value.Address, amount *big.Int) error
	Transfer(ctx context.Context, token value.Currency, from, to value.Address, amount *big.Int) error
}

// NativeBank перемещает нативный актив. Move переносит уже приложенную
// к вызову сумму, Send вызывает обработчик получателя.
type NativeBank interface {
	Move(ctx context.Context, from, to value.Address, amount *big.Int) error
	Send(ctx context.Context, from, to value.Address, amount *big.Int) error
}

// FeePolicy рассчитывает комиссию при завершении аукциона.
type FeePolicy interface {
	Name() string
	ComputeFee(
		ctx context.Context,
		auctionID uint64,
		currency value.Currency,
		gross *big.Int,
	) (fee *big.Int, recipient value.Address, err error)
}

type Publisher interface {
	Publish(ctx context.Context, events ...entity.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...entity.Event) {}
