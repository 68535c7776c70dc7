// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

// Auction Аукцион
type Auction struct {
	ID            uint64 `json:"id"`
	Seller        string `json:"seller"`
	OracleReader  string `json:"oracleReader"`
	AssetContract string `json:"assetContract"`
	AssetID       string `json:"assetId"`

	// StartPriceUSD Стартовая цена в USD, строка с десятичной точкой
	StartPriceUSD string    `json:"startPriceUsd"`
	Deadline      time.Time `json:"deadline"`
	HighestBidder string    `json:"highestBidder"`

	// HighestBidAmount Сумма ставки в минимальных единицах валюты
	HighestBidAmount string `json:"highestBidAmount"`

	// PaymentAsset Валюта ставки, нулевой адрес означает нативный актив
	PaymentAsset     string    `json:"paymentAsset"`
	Ended            bool      `json:"ended"`
	State            string    `json:"state"`
	RemainingSeconds int64     `json:"remainingSeconds"`
	CreatedAt        time.Time `json:"createdAt"`
}

type AuctionList struct {
	Items []Auction `json:"items"`
}

type CreateAuctionRequest struct {
	OracleReader  string `json:"oracleReader" validate:"required"`
	AssetContract string `json:"assetContract" validate:"required"`
	AssetID       string `json:"assetId" validate:"required,numeric"`

	// StartPriceUSD Стартовая цена в USD, например "1000" или "999.5"
	StartPriceUSD   string `json:"startPriceUsd" validate:"required"`
	DurationSeconds int64  `json:"durationSeconds" validate:"gt=0"`
}

type CreateAuctionResponse struct {
	ID uint64 `json:"id"`
}

type BatchAuctionsRequest struct {
	IDs []uint64 `json:"ids" validate:"required,min=1,max=100"`
}

type NativeBidRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

type TokenBidRequest struct {
	Token  string `json:"token" validate:"required"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type RemainingTime struct {
	Seconds int64 `json:"seconds"`
}

// Settlement Итог завершения аукциона
type Settlement struct {
	AuctionID    uint64 `json:"auctionId"`
	Winner       string `json:"winner"`
	Currency     string `json:"currency"`
	Gross        string `json:"gross"`
	Fee          string `json:"fee"`
	FeeRecipient string `json:"feeRecipient"`
	SellerAmount string `json:"sellerAmount"`
}

type FeeBalance struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type WithdrawFeesRequest struct {
	Currency  string `json:"currency" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    string `json:"amount" validate:"required,numeric"`
}

// Price Цена валюты в USD с 8 знаками после запятой
type Price struct {
	Reader   string `json:"reader"`
	Currency string `json:"currency"`
	Price    string `json:"price"`
	PriceUSD string `json:"priceUsd"`
}

// Event Событие аукциона в потоке
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AuctionID  *uint64   `json:"auctionId,omitempty"`
	Actor      string    `json:"actor"`
	Currency   string    `json:"currency"`
	Amount     string    `json:"amount,omitempty"`
	Recipient  string    `json:"recipient"`
	Old        string    `json:"old,omitempty"`
	New        string    `json:"new,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type MintNFTRequest struct {
	Contract string `json:"contract" validate:"required"`
	To       string `json:"to" validate:"required"`
	TokenID  string `json:"tokenId" validate:"required,numeric"`
}

type ApproveNFTRequest struct {
	Contract string `json:"contract" validate:"required"`
	Operator string `json:"operator" validate:"required"`
	TokenID  string `json:"tokenId" validate:"required,numeric"`
}

type DepositRequest struct {
	// Token Пустое значение означает нативный актив
	Token  string `json:"token"`
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type ApproveTokenRequest struct {
	Token   string `json:"token" validate:"required"`
	Spender string `json:"spender" validate:"required"`
	Amount  string `json:"amount" validate:"required,numeric"`
}

type Balance struct {
	Owner    string `json:"owner"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`

	SupportID string `json:"supportId"`
}

// ErrorCode Код ошибки
type ErrorCode string
