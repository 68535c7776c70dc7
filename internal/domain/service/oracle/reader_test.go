package oracle_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/infrastructure/chainlink"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	usdc     = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	wbtc     = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recorder struct {
	events []entity.Event
}

func (r *recorder) Publish(_ context.Context, events ...entity.Event) {
	r.events = append(r.events, events...)
}

func feedAt(c *clock, hex string, answer *big.Int) *chainlink.ManualFeed {
	return chainlink.NewManualFeed(common.HexToAddress(hex), value.USDDecimals, answer).WithClock(c.Now)
}

func newReader(c *clock) *oracle.Reader {
	return oracle.NewReader(common.HexToAddress("0x0000000000000000000000000000000000000f01"), owner).
		WithClock(c.Now)
}

func TestReader_SetFeeds(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	rec := &recorder{}
	r := newReader(c).WithPublisher(rec)

	ethFeed := feedAt(c, "0x0000000000000000000000000000000000000e01", value.USD(2800))

	rq.ErrorIs(r.SetNativePriceFeed(ctx, stranger, ethFeed), domain.ErrUnauthorizedAccount)
	rq.ErrorIs(r.SetNativePriceFeed(ctx, owner, nil), domain.ErrInvalidPriceFeed)
	rq.ErrorIs(r.SetNativePriceFeed(ctx, owner, feedAt(c, "0x0", value.USD(1))), domain.ErrInvalidPriceFeed)
	rq.False(r.IsPriceFeedSet(value.NativeCurrency))

	rq.NoError(r.SetNativePriceFeed(ctx, owner, ethFeed))
	rq.True(r.IsPriceFeedSet(value.NativeCurrency))

	rq.ErrorIs(r.SetTokenPriceFeed(ctx, stranger, usdc, ethFeed), domain.ErrUnauthorizedAccount)
	rq.ErrorIs(r.SetTokenPriceFeed(ctx, owner, value.NativeCurrency, ethFeed), domain.ErrInvalidTokenAddress)
	rq.ErrorIs(r.SetTokenPriceFeed(ctx, owner, usdc, nil), domain.ErrInvalidPriceFeed)

	usdcFeed := feedAt(c, "0x0000000000000000000000000000000000000e02", big.NewInt(99_977_674))
	rq.NoError(r.SetTokenPriceFeed(ctx, owner, usdc, usdcFeed))

	// Повторная регистрация перезаписывает фид.
	replacement := feedAt(c, "0x0000000000000000000000000000000000000e03", value.USD(1))
	rq.NoError(r.SetTokenPriceFeed(ctx, owner, usdc, replacement))

	got, ok := r.TokenFeed(usdc)
	rq.True(ok)
	rq.Equal(replacement.Address(), got.Address())

	rq.Len(rec.events, 3)
	last := rec.events[2]
	rq.Equal(entity.EventPriceFeedUpdated, last.Type)
	rq.Equal(usdc, last.Currency)
	rq.Equal(usdcFeed.Address().Hex(), last.Old)
	rq.Equal(replacement.Address().Hex(), last.New)
	rq.Equal(common.Address{}.Hex(), rec.events[0].Old)
}

func TestReader_GetPrice(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	testCases := []struct {
		name    string
		prepare func(c *clock, f *chainlink.ManualFeed)
		want    *big.Int
		wantErr error
	}{
		{
			name: "fresh price",
			want: value.USD(2800),
		},
		{
			name: "exactly at staleness window",
			prepare: func(c *clock, _ *chainlink.ManualFeed) {
				c.Advance(oracle.StalenessWindow)
			},
			want: value.USD(2800),
		},
		{
			name: "one second past staleness window",
			prepare: func(c *clock, _ *chainlink.ManualFeed) {
				c.Advance(oracle.StalenessWindow + time.Second)
			},
			wantErr: domain.ErrStalePriceData,
		},
		{
			name: "zero price",
			prepare: func(_ *clock, f *chainlink.ManualFeed) {
				f.UpdateAnswer(big.NewInt(0))
			},
			wantErr: domain.ErrInvalidPrice,
		},
		{
			name: "negative price",
			prepare: func(_ *clock, f *chainlink.ManualFeed) {
				f.UpdateAnswer(big.NewInt(-1))
			},
			wantErr: domain.ErrInvalidPrice,
		},
		{
			name: "round answered in earlier round",
			prepare: func(c *clock, f *chainlink.ManualFeed) {
				f.UpdateRoundData(5, value.USD(2800), c.Now(), c.Now(), 4)
			},
			wantErr: domain.ErrStalePriceData,
		},
		{
			name: "feed failure",
			prepare: func(_ *clock, f *chainlink.ManualFeed) {
				f.Fail(errors.New("execution reverted"))
			},
			wantErr: domain.ErrPriceFeedUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			c := &clock{now: start}
			r := newReader(c)
			f := feedAt(c, "0x0000000000000000000000000000000000000e01", value.USD(2800))
			rq.NoError(r.SetNativePriceFeed(ctx, owner, f))

			if tc.prepare != nil {
				tc.prepare(c, f)
			}

			price, err := r.GetNativePrice(ctx)
			if tc.wantErr != nil {
				rq.ErrorIs(err, tc.wantErr)
				rq.Nil(price)
				return
			}

			rq.NoError(err)
			rq.Equal(0, tc.want.Cmp(price))
		})
	}
}

func TestReader_GetPriceNotSet(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	r := newReader(&clock{now: time.Unix(1_700_000_000, 0)})

	_, err := r.GetNativePrice(ctx)
	rq.ErrorIs(err, domain.ErrPriceFeedNotSet)

	_, err = r.GetTokenPrice(ctx, usdc)
	rq.ErrorIs(err, domain.ErrPriceFeedNotSet)

	_, err = r.GetTokenPrice(ctx, value.NativeCurrency)
	rq.ErrorIs(err, domain.ErrInvalidTokenAddress)
}

func TestReader_GetValueInUSD(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newReader(c)

	require.NoError(t, r.SetNativePriceFeed(ctx, owner, feedAt(c, "0x0000000000000000000000000000000000000e01", value.USD(2800))))
	require.NoError(t, r.SetTokenPriceFeed(ctx, owner, usdc, feedAt(c, "0x0000000000000000000000000000000000000e02", big.NewInt(99_977_674))))
	require.NoError(t, r.SetTokenPriceFeed(ctx, owner, wbtc, feedAt(c, "0x0000000000000000000000000000000000000e03", value.USD(60_000))))

	testCases := []struct {
		name     string
		currency value.Currency
		amount   *big.Int
		decimals uint8
		want     *big.Int
	}{
		{
			name:     "half native unit with 18 decimals",
			currency: value.NativeCurrency,
			amount:   value.MustUnits("0.5", 18),
			decimals: 18,
			want:     value.USD(1400),
		},
		{
			name:     "stablecoin with 6 decimals",
			currency: usdc,
			amount:   value.MustUnits("1500", 6),
			decimals: 6,
			want:     big.NewInt(149_966_511_000),
		},
		{
			name:     "token with 8 decimals",
			currency: wbtc,
			amount:   value.MustUnits("0.01", 8),
			decimals: 8,
			want:     value.USD(600),
		},
		{
			name:     "zero amount",
			currency: usdc,
			amount:   big.NewInt(0),
			decimals: 6,
			want:     big.NewInt(0),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			got, err := r.GetValueInUSD(ctx, tc.currency, tc.amount, tc.decimals)
			rq.NoError(err)
			rq.Equal(0, tc.want.Cmp(got), "got %s", got)
		})
	}
}

func TestReader_GetValueInUSDZeroAmountSkipsPrice(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newReader(c)

	f := feedAt(c, "0x0000000000000000000000000000000000000e01", value.USD(2800))
	rq.NoError(r.SetNativePriceFeed(ctx, owner, f))
	f.Fail(errors.New("down"))

	got, err := r.GetValueInUSD(ctx, value.NativeCurrency, big.NewInt(0), 18)
	rq.NoError(err)
	rq.Zero(got.Sign())

	_, err = r.GetValueInUSD(ctx, usdc, big.NewInt(0), 6)
	rq.ErrorIs(err, domain.ErrPriceFeedNotSet)
}

func TestDirectory(t *testing.T) {
	rq := require.New(t)
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	r := newReader(c)

	d := oracle.NewDirectory(r)

	got, ok := d.Get(r.Address())
	rq.True(ok)
	rq.Same(r, got)

	_, ok = d.Get(stranger)
	rq.False(ok)
	rq.Len(d.List(), 1)
}

func TestReader_TransferOwnership(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	rec := &recorder{}
	r := newReader(c).WithPublisher(rec)

	ethFeed := feedAt(c, "0x0000000000000000000000000000000000000e01", value.USD(2800))
	usdcFeed := feedAt(c, "0x0000000000000000000000000000000000000e02", value.USD(1))

	rq.ErrorIs(r.TransferOwnership(ctx, stranger, stranger), domain.ErrUnauthorizedAccount)
	rq.ErrorIs(r.TransferOwnership(ctx, stranger, common.Address{}), domain.ErrUnauthorizedAccount)
	rq.ErrorIs(r.TransferOwnership(ctx, owner, common.Address{}), domain.ErrInvalidOwner)
	rq.Equal(owner, r.Owner())
	rq.Empty(rec.events)

	// владелец передаёт права
	rq.NoError(r.TransferOwnership(ctx, owner, stranger))
	rq.Equal(stranger, r.Owner())
	rq.Len(rec.events, 1)
	rq.Equal(entity.EventOwnershipTransferred, rec.events[0].Type)
	rq.Equal(owner.Hex(), rec.events[0].Old)
	rq.Equal(stranger.Hex(), rec.events[0].New)

	// новый владелец меняет фиды
	rq.NoError(r.SetNativePriceFeed(ctx, stranger, ethFeed))
	rq.NoError(r.SetTokenPriceFeed(ctx, stranger, usdc, usdcFeed))
	rq.Equal(stranger, rec.events[len(rec.events)-1].Actor)

	// прежний владелец больше не может
	rq.ErrorIs(r.SetNativePriceFeed(ctx, owner, ethFeed), domain.ErrUnauthorizedAccount)
	rq.ErrorIs(r.SetTokenPriceFeed(ctx, owner, usdc, usdcFeed), domain.ErrUnauthorizedAccount)
	rq.ErrorIs(r.TransferOwnership(ctx, owner, owner), domain.ErrUnauthorizedAccount)
}
