package auction

import (
	"context"
	"fmt"
	"math/big"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/logx"
)

type escrow struct {
	bidder   value.Address
	currency value.Currency
	amount   *big.Int
}

// PlaceBidNative делает ставку приложенной суммой нативного актива.
func (r *Registry) PlaceBidNative(ctx context.Context, caller value.Address, auctionID uint64, amount *big.Int) error {
	return r.placeBid(ctx, caller, auctionID, value.NativeCurrency, amount, false)
}

// PlaceBidToken делает ставку токеном; токены списываются по allowance.
func (r *Registry) PlaceBidToken(
	ctx context.Context,
	caller value.Address,
	auctionID uint64,
	token value.Currency,
	amount *big.Int,
) error {
	return r.placeBid(ctx, caller, auctionID, token, amount, true)
}

// PlaceBid принимает ставку, если её оценка в USD строго выше текущей,
// и возвращает средства предыдущему лидеру в исходной валюте.
func (r *Registry) PlaceBid(
	ctx context.Context,
	caller value.Address,
	auctionID uint64,
	currency value.Currency,
	amount *big.Int,
) error {
	return r.placeBid(ctx, caller, auctionID, currency, amount, !value.IsNative(currency))
}

// placeBid: tokenBid отличает вход для токенов, где нативная валюта
// недопустима.
func (r *Registry) placeBid(
	ctx context.Context,
	caller value.Address,
	auctionID uint64,
	currency value.Currency,
	amount *big.Int,
	tokenBid bool,
) error {
	var usd *big.Int

	err := r.mutate(ctx, "place-bid", func(ctx context.Context, tx Tx, op *operation) error {
		a, err := tx.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}

		if err := r.checkBid(a, caller, currency, amount, tokenBid); err != nil {
			return err
		}

		usd, err = r.outbid(ctx, a, currency, amount)
		if err != nil {
			return err
		}

		prev := escrow{bidder: a.HighestBidder, currency: a.PaymentAsset, amount: value.Clone(a.HighestBidAmount)}
		hadBid := a.HasBid()

		a.HighestBidder = caller
		a.HighestBidAmount = value.Clone(amount)
		a.PaymentAsset = currency
		if err := tx.UpdateAuction(ctx, a); err != nil {
			return err
		}

		ev := r.newEvent(entity.EventNewHighestBid)
		ev.AuctionID = entity.AuctionRef(auctionID)
		ev.Actor = caller
		ev.Currency = currency
		ev.Amount = value.Clone(amount)
		op.emit(ev)

		if err := r.collect(ctx, op, escrow{bidder: caller, currency: currency, amount: amount}); err != nil {
			return err
		}

		if hadBid {
			return r.refund(ctx, op, prev)
		}
		return nil
	})
	if err != nil {
		return r.rejectBid(ctx, auctionID, caller, err)
	}

	logger(ctx).Info("bid accepted",
		logx.FieldAuctionID, auctionID,
		logx.FieldCaller, caller.Hex(),
		logx.FieldCurrency, value.CurrencyLabel(currency),
		"amount", amount.String(),
		"usd", value.FormatUSD(usd),
	)

	return nil
}

func (r *Registry) rejectBid(ctx context.Context, auctionID uint64, caller value.Address, err error) error {
	logger(ctx).Info("bid rejected",
		logx.FieldAuctionID, auctionID,
		logx.FieldCaller, caller.Hex(),
		logx.Error(err),
	)
	return err
}

// checkBid проверяет предусловия ставки в фиксированном порядке.
func (r *Registry) checkBid(
	a *entity.Auction,
	caller value.Address,
	currency value.Currency,
	amount *big.Int,
	tokenBid bool,
) error {
	if caller == a.Seller {
		return domain.ErrSellerCannotBid
	}
	if a.Ended {
		return domain.ErrAuctionAlreadyEnded
	}
	if !r.now().Before(a.Deadline) {
		return domain.ErrAuctionExpired
	}

	if tokenBid && value.IsNative(currency) {
		return domain.ErrInvalidTokenAddress
	}

	positive := amount != nil && amount.Sign() > 0
	if value.IsNative(currency) {
		if !positive {
			return domain.ErrMustSendNativeAsset
		}
		return nil
	}

	if !positive {
		return domain.ErrAmountZero
	}
	return nil
}

// outbid оценивает новую и текущую ставки по текущим ценам и возвращает
// оценку новой ставки.
func (r *Registry) outbid(ctx context.Context, a *entity.Auction, currency value.Currency, amount *big.Int) (*big.Int, error) {
	o, err := r.resolveOracle(a.OracleReader)
	if err != nil {
		return nil, err
	}

	if !o.IsPriceFeedSet(currency) {
		return nil, domain.ErrPriceFeedNotSet
	}

	decimals, err := r.decimals(ctx, currency)
	if err != nil {
		return nil, err
	}

	usd, err := o.GetValueInUSD(ctx, currency, amount, decimals)
	if err != nil {
		return nil, err
	}

	if !a.HasBid() {
		if usd.Cmp(a.StartPriceUSD) < 0 {
			return nil, domain.ErrBidBelowStartPrice
		}
		return usd, nil
	}

	prevDecimals, err := r.decimals(ctx, a.PaymentAsset)
	if err != nil {
		return nil, err
	}

	current, err := o.GetValueInUSD(ctx, a.PaymentAsset, a.HighestBidAmount, prevDecimals)
	if err != nil {
		return nil, fmt.Errorf("value current bid: %w", err)
	}

	if usd.Cmp(current) <= 0 {
		return nil, domain.ErrBidNotHigher
	}

	return usd, nil
}

// collect переводит средства участника в эскроу реестра.
func (r *Registry) collect(ctx context.Context, op *operation, e escrow) error {
	self := r.cfg.Address

	if value.IsNative(e.currency) {
		if err := r.native.Move(ctx, e.bidder, self, e.amount); err != nil {
			return domain.ErrTransferFailed.Wrap(err)
		}
		op.onRollback("return attached value", func(ctx context.Context) error {
			return r.native.Move(ctx, self, e.bidder, e.amount)
		})
		return nil
	}

	if err := r.tokens.TransferFrom(ctx, e.currency, self, e.bidder, self, e.amount); err != nil {
		return err
	}
	op.onRollback("return pulled tokens", func(ctx context.Context) error {
		return r.tokens.Transfer(ctx, e.currency, self, e.bidder, e.amount)
	})
	return nil
}

// refund возвращает эскроу вытесненному участнику. Нативный перевод
// ограничен по времени, обработчик получателя не может выполнять
// изменяющие вызовы реестра.
func (r *Registry) refund(ctx context.Context, op *operation, e escrow) error {
	self := r.cfg.Address

	if value.IsNative(e.currency) {
		if err := r.send(ctx, op, e.bidder, e.amount); err != nil {
			return domain.ErrTransferFailed.Wrap(err)
		}
		op.onRollback("reclaim native refund", func(ctx context.Context) error {
			return r.native.Move(ctx, e.bidder, self, e.amount)
		})
		return nil
	}

	if err := r.tokens.Transfer(ctx, e.currency, self, e.bidder, e.amount); err != nil {
		return domain.ErrTransferFailed.Wrap(err)
	}
	op.onRollback("reclaim token refund", func(ctx context.Context) error {
		return r.tokens.Transfer(ctx, e.currency, e.bidder, self, e.amount)
	})
	return nil
}
