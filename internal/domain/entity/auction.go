package entity

import (
	"math/big"
	"time"

	"nft_auction/internal/domain/value"
)

// State: фаза жизненного цикла аукциона.
type State string

const (
	StateCreated State = "created"
	StateExpired State = "expired"
	StateEnded   State = "ended"
)

// Auction: запись аукциона. Порядок полей повторяет схему хранения:
// новые поля добавляются только в конец.
type Auction struct {
	ID               uint64         `json:"id"`
	Seller           value.Address  `json:"seller"`
	OracleReader     value.Address  `json:"oracle_reader"`
	AssetContract    value.Address  `json:"asset_contract"`
	AssetID          *big.Int       `json:"asset_id"`
	StartPriceUSD    *big.Int       `json:"start_price_usd"`
	Deadline         time.Time      `json:"deadline"`
	HighestBidder    value.Address  `json:"highest_bidder"`
	HighestBidAmount *big.Int       `json:"highest_bid_amount"`
	PaymentAsset     value.Currency `json:"payment_asset"`
	Ended            bool           `json:"ended"`
	CreatedAt        time.Time      `json:"created_at"`
}

// HasBid сообщает, есть ли у аукциона ставка в эскроу.
func (a *Auction) HasBid() bool {
	return a.HighestBidder != value.NoBidder
}

// State вычисляет фазу на момент now.
func (a *Auction) State(now time.Time) State {
	switch {
	case a.Ended:
		return StateEnded
	case !now.Before(a.Deadline):
		return StateExpired
	default:
		return StateCreated
	}
}

// Remaining возвращает время до дедлайна, но не меньше нуля.
func (a *Auction) Remaining(now time.Time) time.Duration {
	if a.Ended || !now.Before(a.Deadline) {
		return 0
	}
	return a.Deadline.Sub(now)
}

// Clone делает глубокую копию записи.
func (a *Auction) Clone() *Auction {
	c := *a
	c.AssetID = value.Clone(a.AssetID)
	c.StartPriceUSD = value.Clone(a.StartPriceUSD)
	c.HighestBidAmount = value.Clone(a.HighestBidAmount)
	return &c
}
