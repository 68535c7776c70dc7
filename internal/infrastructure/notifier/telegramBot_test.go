package notifier_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/infrastructure/notifier"
)

func TestFormatEvent(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	usdc := common.HexToAddress("0x4001")

	testCases := []struct {
		name     string
		event    entity.Event
		sent     bool
		contains []string
	}{
		{
			name: "created",
			event: entity.Event{
				Type:      entity.EventAuctionCreated,
				AuctionID: entity.AuctionRef(4),
				Actor:     alice,
				Amount:    value.USD(1000),
			},
			sent:     true,
			contains: []string{"Аукцион #4 создан", "$1000", alice.Hex()},
		},
		{
			name: "bid in token",
			event: entity.Event{
				Type:      entity.EventNewHighestBid,
				AuctionID: entity.AuctionRef(4),
				Actor:     alice,
				Currency:  usdc,
				Amount:    big.NewInt(1_500_000_000),
			},
			sent:     true,
			contains: []string{"#4", "1500000000 " + usdc.Hex()},
		},
		{
			name: "ended without bids",
			event: entity.Event{
				Type:      entity.EventAuctionEnded,
				AuctionID: entity.AuctionRef(4),
			},
			sent:     true,
			contains: []string{"без ставок"},
		},
		{
			name: "ended with winner",
			event: entity.Event{
				Type:      entity.EventAuctionEnded,
				AuctionID: entity.AuctionRef(4),
				Recipient: alice,
				Amount:    big.NewInt(5),
			},
			sent:     true,
			contains: []string{"Победитель", alice.Hex(), "5 native"},
		},
		{
			name: "policy names are escaped",
			event: entity.Event{
				Type: entity.EventFeePolicyUpdated,
				New:  "<flat>",
			},
			sent:     true,
			contains: []string{"нет → &lt;flat&gt;"},
		},
		{
			name: "oracle ownership",
			event: entity.Event{
				Type: entity.EventOwnershipTransferred,
				Old:  alice.Hex(),
				New:  usdc.Hex(),
			},
			sent:     true,
			contains: []string{"Владелец оракула", alice.Hex() + "</code> → <code>" + usdc.Hex()},
		},
		{
			name:  "fee accrual is not sent",
			event: entity.Event{Type: entity.EventFeeAccrued},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			text, ok := notifier.FormatEvent(tc.event)
			rq.Equal(tc.sent, ok)

			for _, want := range tc.contains {
				rq.Contains(text, want)
			}
		})
	}
}
