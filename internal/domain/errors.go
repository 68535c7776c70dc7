package domain

import (
	"errors"
	"fmt"

	"nft_auction/pkg/errcodes"
)

// Kind классифицирует ошибку для транспортного слоя.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindConflict
	KindUnavailable
)

// AppError представляет доменную ошибку приложения.
type AppError struct {
	Code    errcodes.ErrorCode
	Kind    Kind
	Message string
	cause   error
}

// Error реализует интерфейс error.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap возвращает обёрнутую ошибку для errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is сравнивает доменные ошибки по коду.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError создаёт новую доменную ошибку.
func NewError(code errcodes.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindOf(code),
		Message: message,
	}
}

// WrapError оборачивает существующую ошибку с доменным контекстом.
func WrapError(err error, code errcodes.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindOf(code),
		Message: message,
		cause:   err,
	}
}

// Wrap прикрепляет причину к уже объявленной ошибке, сохраняя код.
func (e *AppError) Wrap(cause error) *AppError {
	return &AppError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		cause:   cause,
	}
}

// IsAppError проверяет, является ли ошибка доменной.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode извлекает код ошибки, если это AppError.
func GetCode(err error) (errcodes.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// GetKind извлекает класс ошибки; неизвестные ошибки считаются внутренними.
func GetKind(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Ошибки оракула цен.
var (
	ErrInvalidPriceFeed     = NewError(errcodes.InvalidPriceFeed, "invalid price feed")
	ErrInvalidTokenAddress  = NewError(errcodes.InvalidTokenAddress, "invalid token address")
	ErrPriceFeedNotSet      = NewError(errcodes.PriceFeedNotSet, "price feed not set for this currency")
	ErrInvalidPrice         = NewError(errcodes.InvalidPrice, "price feed returned non-positive price")
	ErrStalePriceData       = NewError(errcodes.StalePriceData, "stale price data")
	ErrPriceFeedUnavailable = NewError(errcodes.PriceFeedUnavailable, "price feed is not functional")
	ErrUnauthorizedAccount  = NewError(errcodes.OwnableUnauthorizedAccount, "caller is not the owner")
	ErrInvalidOwner         = NewError(errcodes.OwnableInvalidOwner, "new owner is the zero address")
)

// Ошибки реестра аукционов.
var (
	ErrInvalidOracleReader    = NewError(errcodes.InvalidPriceOracleReaderAddress, "invalid price oracle reader address")
	ErrInvalidNFTContract     = NewError(errcodes.InvalidNFTContractAddress, "invalid nft contract address")
	ErrStartPriceZero         = NewError(errcodes.StartPriceMustBeGreaterThanZero, "start price must be greater than zero")
	ErrDurationTooShort       = NewError(errcodes.DurationTooShort, "auction duration is too short")
	ErrNotNFTOwner            = NewError(errcodes.OnlyNFTOwnerCanCreateAuction, "only nft owner can create auction")
	ErrNFTNotApproved         = NewError(errcodes.NFTNotApproved, "registry is not approved to transfer the nft")
	ErrAuctionDoesNotExist    = NewError(errcodes.AuctionDoesNotExist, "auction does not exist")
	ErrSellerCannotBid        = NewError(errcodes.SellerCannotBidOnOwnAuction, "seller cannot bid on own auction")
	ErrAuctionAlreadyEnded    = NewError(errcodes.AuctionAlreadyEnded, "auction already ended")
	ErrAuctionExpired         = NewError(errcodes.AuctionExpired, "auction expired")
	ErrMustSendNativeAsset    = NewError(errcodes.MustSendNativeAsset, "must send native asset")
	ErrAmountZero             = NewError(errcodes.AmountMustBeGreaterThanZero, "amount must be greater than zero")
	ErrBidBelowStartPrice     = NewError(errcodes.BidMustBeAtLeastStartingPrice, "bid must be at least starting price")
	ErrBidNotHigher           = NewError(errcodes.BidMustBeHigherThanCurrentBid, "bid must be higher than current highest bid")
	ErrOnlySellerOrAdmin      = NewError(errcodes.OnlySellerOrAdminCanEndAuction, "only seller or admin can end auction")
	ErrAuctionNotEndedYet     = NewError(errcodes.AuctionHasNotEndedYet, "auction has not ended yet")
	ErrFeeExceedsProceeds     = NewError(errcodes.FeeExceedsProceeds, "fee exceeds proceeds")
	ErrOnlyAdmin              = NewError(errcodes.OnlyAdmin, "only admin")
	ErrInvalidRecipient       = NewError(errcodes.InvalidRecipient, "invalid recipient")
	ErrInvalidWithdrawal      = NewError(errcodes.InvalidWithdrawalAmount, "withdrawal amount must be greater than zero")
	ErrInsufficientFees       = NewError(errcodes.InsufficientFeeBalance, "withdrawal exceeds accrued fees")
	ErrTransferFailed         = NewError(errcodes.TransferFailed, "transfer failed")
	ErrDirectTransferRejected = NewError(errcodes.DirectTransferRejected, "use PlaceBidNative or PlaceBidToken to participate in auction")
	ErrReentrantCall          = NewError(errcodes.ReentrantCall, "reentrant call")
)

// Ошибки хранилища активов.
var (
	ErrInsufficientBalance   = NewError(errcodes.InsufficientBalance, "insufficient balance")
	ErrInsufficientAllowance = NewError(errcodes.InsufficientAllowance, "insufficient allowance")
	ErrUnknownToken          = NewError(errcodes.UnknownToken, "unknown token")
	ErrNFTNotFound           = NewError(errcodes.NFTNotFound, "nft not found")
	ErrNotTokenOwner         = NewError(errcodes.NotTokenOwner, "caller is not token owner nor approved")
	ErrStateChangeInHook     = NewError(errcodes.StateChangeInHook, "receive hook cannot change vault state")
)

func kindOf(code errcodes.ErrorCode) Kind {
	switch code {
	case errcodes.NotFound, errcodes.AuctionDoesNotExist, errcodes.NFTNotFound, errcodes.UnknownEntryPoint:
		return KindNotFound
	case errcodes.Forbidden, errcodes.OwnableUnauthorizedAccount, errcodes.OnlySellerOrAdminCanEndAuction,
		errcodes.OnlyAdmin, errcodes.OnlyNFTOwnerCanCreateAuction, errcodes.SellerCannotBidOnOwnAuction,
		errcodes.NotTokenOwner:
		return KindForbidden
	case errcodes.Unauthorized:
		return KindUnauthenticated
	case errcodes.AuctionAlreadyEnded, errcodes.AuctionExpired, errcodes.AuctionHasNotEndedYet,
		errcodes.BidMustBeAtLeastStartingPrice, errcodes.BidMustBeHigherThanCurrentBid, errcodes.ReentrantCall,
		errcodes.FeeExceedsProceeds, errcodes.InsufficientFeeBalance, errcodes.DirectTransferRejected,
		errcodes.StateChangeInHook:
		return KindConflict
	case errcodes.PriceFeedNotSet, errcodes.InvalidPrice, errcodes.StalePriceData, errcodes.PriceFeedUnavailable,
		errcodes.TransferFailed, errcodes.InsufficientBalance, errcodes.InsufficientAllowance, errcodes.TimeoutExceeded:
		return KindUnavailable
	case errcodes.InternalServerError:
		return KindInternal
	default:
		return KindInvalidArgument
	}
}
