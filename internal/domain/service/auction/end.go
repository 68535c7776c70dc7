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

// Settlement: итог завершения аукциона.
type Settlement struct {
	AuctionID    uint64
	Winner       value.Address
	Currency     value.Currency
	Gross        *big.Int
	Fee          *big.Int
	FeeRecipient value.Address
	SellerAmount *big.Int
}

// EndAuction завершает аукцион после дедлайна: без ставок NFT возвращается
// продавцу, иначе выручка за вычетом комиссии уходит продавцу, а NFT
// победителю.
func (r *Registry) EndAuction(ctx context.Context, caller value.Address, auctionID uint64) (Settlement, error) {
	var s Settlement

	err := r.mutate(ctx, "end-auction", func(ctx context.Context, tx Tx, op *operation) error {
		a, err := tx.GetAuction(ctx, auctionID)
		if err != nil {
			return err
		}

		meta, err := r.meta(ctx, tx)
		if err != nil {
			return err
		}

		if caller != a.Seller && caller != meta.Admin {
			return domain.ErrOnlySellerOrAdmin
		}
		if r.now().Before(a.Deadline) {
			return domain.ErrAuctionNotEndedYet
		}
		if a.Ended {
			return domain.ErrAuctionAlreadyEnded
		}

		a.Ended = true
		if err := tx.UpdateAuction(ctx, a); err != nil {
			return err
		}

		s = Settlement{
			AuctionID:    auctionID,
			Winner:       a.HighestBidder,
			Currency:     a.PaymentAsset,
			Gross:        value.Clone(a.HighestBidAmount),
			Fee:          new(big.Int),
			SellerAmount: new(big.Int),
		}

		if a.HasBid() {
			if err := r.settle(ctx, tx, op, a, meta, &s); err != nil {
				return err
			}
		} else {
			if err := r.releaseNFT(ctx, op, a, a.Seller); err != nil {
				return err
			}
		}

		ev := r.newEvent(entity.EventAuctionEnded)
		ev.AuctionID = entity.AuctionRef(auctionID)
		ev.Actor = caller
		ev.Recipient = a.HighestBidder
		ev.Currency = a.PaymentAsset
		ev.Amount = value.Clone(a.HighestBidAmount)
		op.emit(ev)

		return nil
	})
	if err != nil {
		logger(ctx).Info("end auction rejected",
			logx.FieldAuctionID, auctionID,
			logx.FieldCaller, caller.Hex(),
			logx.Error(err),
		)
		return Settlement{}, err
	}

	logger(ctx).Info("auction ended",
		logx.FieldAuctionID, auctionID,
		"winner", s.Winner.Hex(),
		logx.FieldCurrency, value.CurrencyLabel(s.Currency),
		"gross", s.Gross.String(),
		"fee", s.Fee.String(),
	)

	return s, nil
}

func (r *Registry) settle(ctx context.Context, tx Tx, op *operation, a *entity.Auction, meta Meta, s *Settlement) error {
	gross := a.HighestBidAmount

	policy, err := r.policy(meta.FeePolicy)
	if err != nil {
		return err
	}

	if policy != nil {
		fee, recipient, err := policy.ComputeFee(ctx, a.ID, a.PaymentAsset, value.Clone(gross))
		if err != nil {
			return fmt.Errorf("compute fee: %w", err)
		}
		fee = value.Clone(fee)
		if fee.Sign() < 0 || fee.Cmp(gross) > 0 {
			return domain.ErrFeeExceedsProceeds
		}
		if value.IsZero(recipient) {
			recipient = meta.Admin
		}

		s.Fee = fee
		s.FeeRecipient = recipient

		if fee.Sign() > 0 {
			if err := r.creditFee(ctx, tx, a.PaymentAsset, fee); err != nil {
				return err
			}

			ev := r.newEvent(entity.EventFeeAccrued)
			ev.AuctionID = entity.AuctionRef(a.ID)
			ev.Currency = a.PaymentAsset
			ev.Amount = value.Clone(fee)
			ev.Recipient = recipient
			op.emit(ev)
		}
	}

	s.SellerAmount = new(big.Int).Sub(gross, s.Fee)
	if s.SellerAmount.Sign() > 0 {
		if err := r.pay(ctx, op, a.PaymentAsset, a.Seller, s.SellerAmount); err != nil {
			return err
		}
	}

	return r.releaseNFT(ctx, op, a, a.HighestBidder)
}

func (r *Registry) creditFee(ctx context.Context, tx Tx, currency value.Currency, fee *big.Int) error {
	balance, err := tx.FeeBalance(ctx, currency)
	if err != nil {
		return err
	}
	return tx.SetFeeBalance(ctx, currency, new(big.Int).Add(balance, fee))
}

// pay переводит средства из эскроу реестра получателю.
func (r *Registry) pay(ctx context.Context, op *operation, currency value.Currency, to value.Address, amount *big.Int) error {
	self := r.cfg.Address

	if value.IsNative(currency) {
		if err := r.send(ctx, op, to, amount); err != nil {
			return domain.ErrTransferFailed.Wrap(err)
		}
		op.onRollback("reclaim native payout", func(ctx context.Context) error {
			return r.native.Move(ctx, to, self, amount)
		})
		return nil
	}

	if err := r.tokens.Transfer(ctx, currency, self, to, amount); err != nil {
		return domain.ErrTransferFailed.Wrap(err)
	}
	op.onRollback("reclaim token payout", func(ctx context.Context) error {
		return r.tokens.Transfer(ctx, currency, to, self, amount)
	})
	return nil
}

func (r *Registry) releaseNFT(ctx context.Context, op *operation, a *entity.Auction, to value.Address) error {
	self := r.cfg.Address

	if err := r.nft.TransferNFT(ctx, a.AssetContract, self, self, to, a.AssetID); err != nil {
		return domain.ErrTransferFailed.Wrap(err)
	}
	op.onRollback("reclaim nft", func(ctx context.Context) error {
		return r.nft.TransferNFT(ctx, a.AssetContract, to, to, self, a.AssetID)
	})
	return nil
}
