package errcodes

type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

const (
	InternalServerError ErrorCode = "InternalServerError"
	TimeoutExceeded     ErrorCode = "TimeoutExceeded"
	Forbidden           ErrorCode = "Forbidden"
	Unauthorized        ErrorCode = "Unauthorized"
	ValidationError     ErrorCode = "ValidationError"
	NotFound            ErrorCode = "NotFound"
	UnknownEntryPoint   ErrorCode = "UnknownEntryPoint"
	InvalidAuctionID    ErrorCode = "InvalidAuctionID"
	InvalidAddress      ErrorCode = "InvalidAddress"
	InvalidAmount       ErrorCode = "InvalidAmount"
	ReentrantCall       ErrorCode = "ReentrantCall"

	// Price oracle.
	InvalidPriceFeed           ErrorCode = "InvalidPriceFeed"
	InvalidTokenAddress        ErrorCode = "InvalidTokenAddress"
	PriceFeedNotSet            ErrorCode = "PriceFeedNotSet"
	InvalidPrice               ErrorCode = "InvalidPrice"
	StalePriceData             ErrorCode = "StalePriceData"
	PriceFeedUnavailable       ErrorCode = "PriceFeedUnavailable"
	OwnableUnauthorizedAccount ErrorCode = "OwnableUnauthorizedAccount"
	OwnableInvalidOwner        ErrorCode = "OwnableInvalidOwner"

	// Auction registry.
	InvalidPriceOracleReaderAddress ErrorCode = "InvalidPriceOracleReaderAddress"
	InvalidNFTContractAddress       ErrorCode = "InvalidNFTContractAddress"
	StartPriceMustBeGreaterThanZero ErrorCode = "StartPriceMustBeGreaterThanZero"
	DurationTooShort                ErrorCode = "DurationTooShort"
	OnlyNFTOwnerCanCreateAuction    ErrorCode = "OnlyNFTOwnerCanCreateAuction"
	NFTNotApproved                  ErrorCode = "NFTNotApproved"
	AuctionDoesNotExist             ErrorCode = "AuctionDoesNotExist"
	SellerCannotBidOnOwnAuction     ErrorCode = "SellerCannotBidOnOwnAuction"
	AuctionAlreadyEnded             ErrorCode = "AuctionAlreadyEnded"
	AuctionExpired                  ErrorCode = "AuctionExpired"
	MustSendNativeAsset             ErrorCode = "MustSendNativeAsset"
	AmountMustBeGreaterThanZero     ErrorCode = "AmountMustBeGreaterThanZero"
	BidMustBeAtLeastStartingPrice   ErrorCode = "BidMustBeAtLeastStartingPrice"
	BidMustBeHigherThanCurrentBid   ErrorCode = "BidMustBeHigherThanCurrentHighestBid"
	OnlySellerOrAdminCanEndAuction  ErrorCode = "OnlySellerOrAdminCanEndAuction"
	AuctionHasNotEndedYet           ErrorCode = "AuctionHasNotEndedYet"
	FeeExceedsProceeds              ErrorCode = "FeeExceedsProceeds"
	OnlyAdmin                       ErrorCode = "OnlyAdmin"
	InvalidRecipient                ErrorCode = "InvalidRecipient"
	InvalidWithdrawalAmount         ErrorCode = "InvalidWithdrawalAmount"
	InsufficientFeeBalance          ErrorCode = "InsufficientFeeBalance"
	TransferFailed                  ErrorCode = "TransferFailed"
	DirectTransferRejected          ErrorCode = "DirectTransferRejected"

	// Custody.
	InsufficientBalance   ErrorCode = "InsufficientBalance"
	InsufficientAllowance ErrorCode = "InsufficientAllowance"
	UnknownToken          ErrorCode = "UnknownToken"
	NFTNotFound           ErrorCode = "NFTNotFound"
	NotTokenOwner         ErrorCode = "NotTokenOwner"
	StateChangeInHook     ErrorCode = "StateChangeInReceiveHook"
)
