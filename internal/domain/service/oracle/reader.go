package oracle

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
)

// StalenessWindow: максимальный возраст ответа фида.
const StalenessWindow = 3600 * time.Second

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Reader проверяет ответы фидов и переводит суммы в USD с 8 знаками.
// Фид нативного актива хранится под ключом value.NativeCurrency.
type Reader struct {
	address   value.Address
	now       func() time.Time
	publisher Publisher

	mu    sync.RWMutex
	owner value.Address
	feeds map[value.Currency]Feed
}

func NewReader(address, owner value.Address) *Reader {
	return &Reader{
		address:   address,
		owner:     owner,
		now:       time.Now,
		publisher: nopPublisher{},
		feeds:     make(map[value.Currency]Feed),
	}
}

func (r *Reader) WithClock(now func() time.Time) *Reader {
	r.now = now
	return r
}

func (r *Reader) WithPublisher(p Publisher) *Reader {
	r.publisher = p
	return r
}

func (r *Reader) Address() value.Address {
	return r.address
}

func (r *Reader) Owner() value.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// TransferOwnership передаёт право менять фиды новому владельцу.
func (r *Reader) TransferOwnership(ctx context.Context, caller, newOwner value.Address) error {
	r.mu.Lock()
	if caller != r.owner {
		r.mu.Unlock()
		return domain.ErrUnauthorizedAccount
	}
	if value.IsZero(newOwner) {
		r.mu.Unlock()
		return domain.ErrInvalidOwner
	}
	old := r.owner
	r.owner = newOwner
	r.mu.Unlock()

	logger(ctx).Info("oracle ownership transferred",
		"reader", r.address.Hex(),
		"old", old.Hex(),
		"new", newOwner.Hex(),
	)

	r.publisher.Publish(ctx, entity.Event{
		ID:         uuid.NewString(),
		Type:       entity.EventOwnershipTransferred,
		Actor:      caller,
		Old:        old.Hex(),
		New:        newOwner.Hex(),
		OccurredAt: r.now(),
	})

	return nil
}

func (r *Reader) StalenessWindow() time.Duration {
	return StalenessWindow
}

// SetNativePriceFeed регистрирует или заменяет фид нативного актива.
func (r *Reader) SetNativePriceFeed(ctx context.Context, caller value.Address, feed Feed) error {
	if caller != r.Owner() {
		return domain.ErrUnauthorizedAccount
	}
	if isNilFeed(feed) {
		return domain.ErrInvalidPriceFeed
	}

	r.setFeed(ctx, caller, value.NativeCurrency, feed)

	return nil
}

// SetTokenPriceFeed регистрирует или заменяет фид токена.
func (r *Reader) SetTokenPriceFeed(ctx context.Context, caller value.Address, token value.Currency, feed Feed) error {
	if caller != r.Owner() {
		return domain.ErrUnauthorizedAccount
	}
	if value.IsNative(token) {
		return domain.ErrInvalidTokenAddress
	}
	if isNilFeed(feed) {
		return domain.ErrInvalidPriceFeed
	}

	r.setFeed(ctx, caller, token, feed)

	return nil
}

func (r *Reader) setFeed(ctx context.Context, caller value.Address, currency value.Currency, feed Feed) {
	r.mu.Lock()
	var old value.Address
	if prev, ok := r.feeds[currency]; ok {
		old = prev.Address()
	}
	r.feeds[currency] = feed
	r.mu.Unlock()

	logger(ctx).Info("price feed updated",
		"reader", r.address.Hex(),
		"currency", value.CurrencyLabel(currency),
		"old", old.Hex(),
		"new", feed.Address().Hex(),
	)

	r.publisher.Publish(ctx, entity.Event{
		ID:         uuid.NewString(),
		Type:       entity.EventPriceFeedUpdated,
		Actor:      caller,
		Currency:   currency,
		Old:        old.Hex(),
		New:        feed.Address().Hex(),
		OccurredAt: r.now(),
	})
}

func (r *Reader) NativeFeed() (Feed, bool) {
	return r.feed(value.NativeCurrency)
}

func (r *Reader) TokenFeed(token value.Currency) (Feed, bool) {
	return r.feed(token)
}

func (r *Reader) feed(currency value.Currency) (Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.feeds[currency]
	return f, ok
}

// IsPriceFeedSet проверяет только регистрацию фида, без запроса цены.
func (r *Reader) IsPriceFeedSet(currency value.Currency) bool {
	_, ok := r.feed(currency)
	return ok
}

// GetPrice возвращает проверенную положительную цену валюты в USD.
func (r *Reader) GetPrice(ctx context.Context, currency value.Currency) (*big.Int, error) {
	feed, ok := r.feed(currency)
	if !ok {
		return nil, domain.ErrPriceFeedNotSet
	}

	round, err := feed.LatestRoundData(ctx)
	if err != nil {
		return nil, domain.ErrPriceFeedUnavailable.Wrap(err)
	}

	if err := r.validate(round); err != nil {
		logger(ctx).Warn("price feed rejected",
			"currency", value.CurrencyLabel(currency),
			"feed", feed.Address().Hex(),
			"error", err,
		)
		return nil, err
	}

	return new(big.Int).Set(round.Answer), nil
}

func (r *Reader) GetNativePrice(ctx context.Context) (*big.Int, error) {
	return r.GetPrice(ctx, value.NativeCurrency)
}

func (r *Reader) GetTokenPrice(ctx context.Context, token value.Currency) (*big.Int, error) {
	if value.IsNative(token) {
		return nil, domain.ErrInvalidTokenAddress
	}
	return r.GetPrice(ctx, token)
}

// GetValueInUSD считает amount * price / 10^decimals в целых числах.
func (r *Reader) GetValueInUSD(
	ctx context.Context,
	currency value.Currency,
	amount *big.Int,
	decimals uint8,
) (*big.Int, error) {
	if !r.IsPriceFeedSet(currency) {
		return nil, domain.ErrPriceFeedNotSet
	}

	if amount == nil || amount.Sign() == 0 {
		return new(big.Int), nil
	}

	price, err := r.GetPrice(ctx, currency)
	if err != nil {
		return nil, err
	}

	v := new(big.Int).Mul(amount, price)

	return v.Quo(v, value.Pow10(decimals)), nil
}

func (r *Reader) validate(round RoundData) error {
	if round.Answer == nil || round.Answer.Sign() <= 0 {
		return domain.ErrInvalidPrice
	}

	if round.RoundID == nil || round.AnsweredInRound == nil || round.AnsweredInRound.Cmp(round.RoundID) != 0 {
		return domain.ErrStalePriceData
	}

	if r.now().Sub(round.UpdatedAt) > StalenessWindow {
		return domain.ErrStalePriceData
	}

	return nil
}

func isNilFeed(feed Feed) bool {
	return feed == nil || value.IsZero(feed.Address())
}
