package auction

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/logx"
)

type CreateParams struct {
	OracleReader  value.Address
	AssetContract value.Address
	AssetID       *big.Int
	StartPriceUSD *big.Int
	Duration      time.Duration
}

// CreateAuction забирает NFT продавца в хранение и открывает аукцион.
func (r *Registry) CreateAuction(ctx context.Context, caller value.Address, p CreateParams) (uint64, error) {
	var id uint64

	err := r.mutate(ctx, "create-auction", func(ctx context.Context, tx Tx, op *operation) error {
		if err := r.validateCreate(p); err != nil {
			return err
		}

		owner, err := r.nft.OwnerOf(ctx, p.AssetContract, p.AssetID)
		if err != nil {
			return fmt.Errorf("nft owner: %w", err)
		}
		if owner != caller {
			return domain.ErrNotNFTOwner
		}

		approved, err := r.nft.IsApproved(ctx, p.AssetContract, p.AssetID, r.cfg.Address)
		if err != nil {
			return fmt.Errorf("nft approval: %w", err)
		}
		if !approved {
			return domain.ErrNFTNotApproved
		}

		meta, err := r.meta(ctx, tx)
		if err != nil {
			return err
		}

		now := r.now()
		id = meta.NextAuctionID
		a := &entity.Auction{
			ID:               id,
			Seller:           caller,
			OracleReader:     p.OracleReader,
			AssetContract:    p.AssetContract,
			AssetID:          value.Clone(p.AssetID),
			StartPriceUSD:    value.Clone(p.StartPriceUSD),
			Deadline:         now.Add(p.Duration),
			HighestBidder:    value.NoBidder,
			HighestBidAmount: new(big.Int),
			PaymentAsset:     value.NativeCurrency,
			CreatedAt:        now,
		}

		meta.NextAuctionID++
		if err := tx.SetMeta(ctx, meta); err != nil {
			return err
		}
		if err := tx.InsertAuction(ctx, a); err != nil {
			return err
		}

		ev := r.newEvent(entity.EventAuctionCreated)
		ev.AuctionID = entity.AuctionRef(id)
		ev.Actor = caller
		ev.Amount = value.Clone(p.StartPriceUSD)
		op.emit(ev)

		if err := r.nft.TransferNFT(ctx, p.AssetContract, r.cfg.Address, caller, r.cfg.Address, p.AssetID); err != nil {
			return domain.ErrTransferFailed.Wrap(err)
		}
		op.onRollback("return nft to seller", func(ctx context.Context) error {
			return r.nft.TransferNFT(ctx, p.AssetContract, r.cfg.Address, r.cfg.Address, caller, p.AssetID)
		})

		return nil
	})
	if err != nil {
		return 0, err
	}

	logger(ctx).Info("auction created",
		logx.FieldAuctionID, id,
		logx.FieldCaller, caller.Hex(),
		"start_price_usd", value.FormatUSD(p.StartPriceUSD),
		"duration", p.Duration.String(),
	)

	return id, nil
}

func (r *Registry) validateCreate(p CreateParams) error {
	if value.IsZero(p.OracleReader) {
		return domain.ErrInvalidOracleReader
	}
	if _, err := r.resolveOracle(p.OracleReader); err != nil {
		return err
	}
	if value.IsZero(p.AssetContract) {
		return domain.ErrInvalidNFTContract
	}
	if p.StartPriceUSD == nil || p.StartPriceUSD.Sign() <= 0 {
		return domain.ErrStartPriceZero
	}
	if p.Duration < r.cfg.MinDuration {
		return domain.ErrDurationTooShort
	}
	if p.AssetID == nil || p.AssetID.Sign() < 0 {
		return domain.ErrNFTNotFound
	}
	return nil
}
