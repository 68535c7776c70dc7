package persistence

import (
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
)

// auctionSchema: строка таблицы auctions. Числа хранятся как NUMERIC
// и читаются через ::text.
type auctionSchema struct {
	ID               int64     `db:"id"`
	Seller           string    `db:"seller"`
	OracleReader     string    `db:"oracle_reader"`
	AssetContract    string    `db:"asset_contract"`
	AssetID          string    `db:"asset_id"`
	StartPriceUSD    string    `db:"start_price_usd"`
	Deadline         time.Time `db:"deadline"`
	HighestBidder    string    `db:"highest_bidder"`
	HighestBidAmount string    `db:"highest_bid_amount"`
	PaymentAsset     string    `db:"payment_asset"`
	Ended            bool      `db:"ended"`
	CreatedAt        time.Time `db:"created_at"`
}

func fromAuction(a *entity.Auction) auctionSchema {
	return auctionSchema{
		ID:               int64(a.ID), //nolint:gosec // идентификаторы выдаются последовательно
		Seller:           a.Seller.Hex(),
		OracleReader:     a.OracleReader.Hex(),
		AssetContract:    a.AssetContract.Hex(),
		AssetID:          value.Clone(a.AssetID).String(),
		StartPriceUSD:    value.Clone(a.StartPriceUSD).String(),
		Deadline:         a.Deadline.UTC(),
		HighestBidder:    a.HighestBidder.Hex(),
		HighestBidAmount: value.Clone(a.HighestBidAmount).String(),
		PaymentAsset:     a.PaymentAsset.Hex(),
		Ended:            a.Ended,
		CreatedAt:        a.CreatedAt.UTC(),
	}
}

func (s auctionSchema) toDomain() (*entity.Auction, error) {
	assetID, err := value.ParseInt(s.AssetID)
	if err != nil {
		return nil, fmt.Errorf("asset_id: %w", err)
	}
	startPrice, err := value.ParseInt(s.StartPriceUSD)
	if err != nil {
		return nil, fmt.Errorf("start_price_usd: %w", err)
	}
	amount, err := value.ParseInt(s.HighestBidAmount)
	if err != nil {
		return nil, fmt.Errorf("highest_bid_amount: %w", err)
	}

	return &entity.Auction{
		ID:               uint64(s.ID), //nolint:gosec // в таблице только неотрицательные id
		Seller:           common.HexToAddress(s.Seller),
		OracleReader:     common.HexToAddress(s.OracleReader),
		AssetContract:    common.HexToAddress(s.AssetContract),
		AssetID:          assetID,
		StartPriceUSD:    startPrice,
		Deadline:         s.Deadline,
		HighestBidder:    common.HexToAddress(s.HighestBidder),
		HighestBidAmount: amount,
		PaymentAsset:     common.HexToAddress(s.PaymentAsset),
		Ended:            s.Ended,
		CreatedAt:        s.CreatedAt,
	}, nil
}

type metaSchema struct {
	Admin         string `db:"admin"`
	NextAuctionID int64  `db:"next_auction_id"`
	FeePolicy     string `db:"fee_policy"`
}

func (s metaSchema) toDomain() auction.Meta {
	return auction.Meta{
		Admin:         common.HexToAddress(s.Admin),
		NextAuctionID: uint64(s.NextAuctionID), //nolint:gosec
		FeePolicy:     s.FeePolicy,
	}
}

type eventSchema struct {
	ID         string         `db:"id"`
	Type       string         `db:"type"`
	AuctionID  sql.NullInt64  `db:"auction_id"`
	Actor      string         `db:"actor"`
	Currency   string         `db:"currency"`
	Amount     sql.NullString `db:"amount"`
	Recipient  string         `db:"recipient"`
	Old        string         `db:"old_value"`
	New        string         `db:"new_value"`
	OccurredAt time.Time      `db:"occurred_at"`
}

func fromEvent(e entity.Event) eventSchema {
	s := eventSchema{
		ID:         e.ID,
		Type:       string(e.Type),
		Actor:      e.Actor.Hex(),
		Currency:   e.Currency.Hex(),
		Recipient:  e.Recipient.Hex(),
		Old:        e.Old,
		New:        e.New,
		OccurredAt: e.OccurredAt.UTC(),
	}
	if e.AuctionID != nil {
		s.AuctionID = sql.NullInt64{Int64: int64(*e.AuctionID), Valid: true} //nolint:gosec
	}
	if e.Amount != nil {
		s.Amount = sql.NullString{String: e.Amount.String(), Valid: true}
	}
	return s
}

func (s eventSchema) toDomain() (entity.Event, error) {
	e := entity.Event{
		ID:         s.ID,
		Type:       entity.EventType(s.Type),
		Actor:      common.HexToAddress(s.Actor),
		Currency:   common.HexToAddress(s.Currency),
		Recipient:  common.HexToAddress(s.Recipient),
		Old:        s.Old,
		New:        s.New,
		OccurredAt: s.OccurredAt,
	}
	if s.AuctionID.Valid {
		e.AuctionID = entity.AuctionRef(uint64(s.AuctionID.Int64)) //nolint:gosec
	}
	if s.Amount.Valid {
		amount, ok := new(big.Int).SetString(s.Amount.String, 10)
		if !ok {
			return entity.Event{}, fmt.Errorf("event amount %q", s.Amount.String)
		}
		e.Amount = amount
	}
	return e, nil
}
