package entity

import (
	"math/big"
	"time"

	"nft_auction/internal/domain/value"
)

type EventType string

const (
	EventAuctionCreated   EventType = "AuctionCreated"
	EventNewHighestBid    EventType = "NewHighestBid"
	EventAuctionEnded     EventType = "AuctionEnded"
	EventFeePolicyUpdated EventType = "FeePolicyUpdated"
	EventFeeAccrued       EventType = "FeeAccrued"
	EventFeeWithdrawn     EventType = "FeeWithdrawn"
	EventPriceFeedUpdated EventType = "PriceFeedUpdated"

	EventOwnershipTransferred EventType = "OwnershipTransferred"
)

// Event: запись журнала уведомлений. Поля, не относящиеся к типу события,
// остаются пустыми.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	AuctionID  *uint64        `json:"auction_id,omitempty"`
	Actor      value.Address  `json:"actor"`
	Currency   value.Currency `json:"currency"`
	Amount     *big.Int       `json:"amount,omitempty"`
	Recipient  value.Address  `json:"recipient"`
	Old        string         `json:"old,omitempty"`
	New        string         `json:"new,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func AuctionRef(id uint64) *uint64 {
	return &id
}
