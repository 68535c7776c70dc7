package auction

import (
	"context"
	"math/big"
	"time"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/logx"
)

func (r *Registry) GetAuction(ctx context.Context, id uint64) (*entity.Auction, error) {
	return r.store.GetAuction(ctx, id)
}

// GetAuctions возвращает аукционы в порядке ids; при отсутствии хотя бы
// одного возвращается ошибка без частичного результата.
func (r *Registry) GetAuctions(ctx context.Context, ids []uint64) ([]*entity.Auction, error) {
	out := make([]*entity.Auction, 0, len(ids))
	for _, id := range ids {
		a, err := r.store.GetAuction(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Registry) ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return r.store.ListAuctions(ctx, offset, limit)
}

// GetRemainingTime никогда не возвращает ошибку: для завершённых и
// несуществующих аукционов результат равен нулю.
func (r *Registry) GetRemainingTime(ctx context.Context, id uint64) time.Duration {
	a, err := r.store.GetAuction(ctx, id)
	if err != nil {
		if domain.GetKind(err) != domain.KindNotFound {
			logger(ctx).Warn("remaining time lookup failed", logx.FieldAuctionID, id, logx.Error(err))
		}
		return 0
	}
	return a.Remaining(r.now())
}

// State возвращает фазу аукциона на текущий момент.
func (r *Registry) State(ctx context.Context, id uint64) (entity.State, error) {
	a, err := r.store.GetAuction(ctx, id)
	if err != nil {
		return "", err
	}
	return a.State(r.now()), nil
}

func (r *Registry) FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error) {
	return r.store.FeeBalance(ctx, currency)
}

func (r *Registry) Admin(ctx context.Context) (value.Address, error) {
	meta, err := r.meta(ctx, r.store)
	if err != nil {
		return value.Address{}, err
	}
	return meta.Admin, nil
}

func (r *Registry) NextAuctionID(ctx context.Context) (uint64, error) {
	meta, ok, err := r.store.Meta(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return meta.NextAuctionID, nil
}

// FeePolicy возвращает имя действующей политики или пустую строку.
func (r *Registry) FeePolicy(ctx context.Context) (string, error) {
	meta, ok, err := r.store.Meta(ctx)
	if err != nil || !ok {
		return "", err
	}
	return meta.FeePolicy, nil
}

// AuctionEvents возвращает журнал событий аукциона в порядке записи.
func (r *Registry) AuctionEvents(ctx context.Context, id uint64) ([]entity.Event, error) {
	if _, err := r.store.GetAuction(ctx, id); err != nil {
		return nil, err
	}
	return r.store.ListEvents(ctx, id)
}
