package view_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/transport/bot/view"
)

func TestAuction(t *testing.T) {
	rq := require.New(t)

	now := time.Unix(1_700_000_000, 0)
	a := &entity.Auction{
		ID:               3,
		Seller:           common.HexToAddress("0xe5"),
		AssetContract:    common.HexToAddress("0x3000"),
		AssetID:          big.NewInt(7),
		StartPriceUSD:    value.USD(1000),
		Deadline:         now.Add(90 * time.Minute),
		HighestBidAmount: new(big.Int),
	}

	text := view.Auction(a, now)
	rq.Contains(text, "Аукцион #3")
	rq.Contains(text, "$1000")
	rq.Contains(text, "Ставок нет")
	rq.Contains(text, "1h30m0s")

	a.HighestBidder = common.HexToAddress("0xa1")
	a.HighestBidAmount = value.MustUnits("0.5", 18)

	text = view.Auction(a, now.Add(2*time.Hour))
	rq.Contains(text, a.HighestBidder.Hex())
	rq.Contains(text, "500000000000000000 native")
	rq.NotContains(text, "Осталось")

	hex := a.HighestBidder.Hex()
	rq.Contains(view.AuctionItem(a, now), hex[:6]+"…"+hex[len(hex)-4:])
}

func TestSettled(t *testing.T) {
	rq := require.New(t)

	rq.Contains(view.Settled(1, value.NoBidder, value.NativeCurrency, nil, nil), "без ставок")

	winner := common.HexToAddress("0xa1")
	text := view.Settled(1, winner, value.NativeCurrency, big.NewInt(100), big.NewInt(3))
	rq.Contains(text, winner.Hex())
	rq.Contains(text, "100 native, комиссия 3")
}

func TestPrice(t *testing.T) {
	require.Equal(t, "📈 native = <b>$2800.5</b>", view.Price(value.NativeCurrency, big.NewInt(280_050_000_000)))
}
