package server

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/rest"
)

func newRESTAuction(a *entity.Auction, now time.Time) rest.Auction {
	return rest.Auction{
		ID:               a.ID,
		Seller:           a.Seller.Hex(),
		OracleReader:     a.OracleReader.Hex(),
		AssetContract:    a.AssetContract.Hex(),
		AssetID:          a.AssetID.String(),
		StartPriceUSD:    value.FormatUSD(a.StartPriceUSD),
		Deadline:         a.Deadline,
		HighestBidder:    a.HighestBidder.Hex(),
		HighestBidAmount: value.Clone(a.HighestBidAmount).String(),
		PaymentAsset:     a.PaymentAsset.Hex(),
		Ended:            a.Ended,
		State:            string(a.State(now)),
		RemainingSeconds: int64(a.Remaining(now).Seconds()),
		CreatedAt:        a.CreatedAt,
	}
}

func newRESTAuctionList(items []*entity.Auction, now time.Time) rest.AuctionList {
	return rest.AuctionList{
		Items: lo.Map(items, func(a *entity.Auction, _ int) rest.Auction {
			return newRESTAuction(a, now)
		}),
	}
}

func newRESTSettlement(s auction.Settlement) rest.Settlement {
	return rest.Settlement{
		AuctionID:    s.AuctionID,
		Winner:       s.Winner.Hex(),
		Currency:     s.Currency.Hex(),
		Gross:        value.Clone(s.Gross).String(),
		Fee:          value.Clone(s.Fee).String(),
		FeeRecipient: s.FeeRecipient.Hex(),
		SellerAmount: value.Clone(s.SellerAmount).String(),
	}
}

func newRESTEvent(e entity.Event) rest.Event {
	var amount string
	if e.Amount != nil {
		amount = e.Amount.String()
	}

	return rest.Event{
		ID:         e.ID,
		Type:       string(e.Type),
		AuctionID:  e.AuctionID,
		Actor:      e.Actor.Hex(),
		Currency:   e.Currency.Hex(),
		Amount:     amount,
		Recipient:  e.Recipient.Hex(),
		Old:        e.Old,
		New:        e.New,
		OccurredAt: e.OccurredAt,
	}
}

func newDomainCreateParams(request rest.CreateAuctionRequest) (auction.CreateParams, error) {
	reader, err := parseAddress(request.OracleReader)
	if err != nil {
		return auction.CreateParams{}, err
	}

	contract, err := parseAddress(request.AssetContract)
	if err != nil {
		return auction.CreateParams{}, err
	}

	assetID, err := parseAmount(request.AssetID)
	if err != nil {
		return auction.CreateParams{}, err
	}

	startPrice, err := value.Units(request.StartPriceUSD, value.USDDecimals)
	if err != nil {
		return auction.CreateParams{}, domain.WrapError(err, errcodes.InvalidAmount, "invalid start price")
	}

	return auction.CreateParams{
		OracleReader:  reader,
		AssetContract: contract,
		AssetID:       assetID,
		StartPriceUSD: startPrice,
		Duration:      time.Duration(request.DurationSeconds) * time.Second,
	}, nil
}

func parseAddress(s string) (value.Address, error) {
	address, err := value.ParseAddress(s)
	if err != nil {
		return value.Address{}, domain.WrapError(err, errcodes.InvalidAddress, "invalid address")
	}

	return address, nil
}

// parseCurrency принимает "native" или адрес токена.
func parseCurrency(s string) (value.Currency, error) {
	if s == "" || strings.EqualFold(s, "native") {
		return value.NativeCurrency, nil
	}

	return parseAddress(s)
}

func parseAmount(s string) (*big.Int, error) {
	amount, err := value.ParseInt(s)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InvalidAmount, "invalid amount")
	}

	return amount, nil
}

func parseAuctionID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, domain.WrapError(
			fmt.Errorf("strconv.ParseUint: %w", err),
			errcodes.InvalidAuctionID,
			"invalid auction id",
		)
	}

	return id, nil
}

func parseInt(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, domain.NewError(errcodes.ValidationError, fmt.Sprintf("invalid integer %q", s))
	}

	return v, nil
}
