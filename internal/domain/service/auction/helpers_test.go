package auction_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/infrastructure/chainlink"
	"nft_auction/internal/infrastructure/custody"
	"nft_auction/internal/infrastructure/persistence"
)

var (
	registryAddr = common.HexToAddress("0x0000000000000000000000000000000000001000")
	readerAddr   = common.HexToAddress("0x0000000000000000000000000000000000002000")
	kitties      = common.HexToAddress("0x0000000000000000000000000000000000003000")
	usdc         = common.HexToAddress("0x0000000000000000000000000000000000004001")
	dai          = common.HexToAddress("0x0000000000000000000000000000000000004002")
	admin        = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	seller       = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	alice        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob          = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	treasury     = common.HexToAddress("0x00000000000000000000000000000000000000fe")

	tokenID = big.NewInt(1)
)

const auctionDuration = 3600 * time.Second

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (r *recorder) Publish(_ context.Context, events ...entity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) Types() []entity.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) Last() entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type env struct {
	ctx      context.Context
	clock    *clock
	store    *persistence.MemoryStore
	vault    *custody.Vault
	reader   *oracle.Reader
	ethFeed  *chainlink.ManualFeed
	usdcFeed *chainlink.ManualFeed
	daiFeed  *chainlink.ManualFeed
	events   *recorder
	registry *auction.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rq := require.New(t)

	e := &env{
		ctx:    context.Background(),
		clock:  &clock{now: time.Unix(1_700_000_000, 0)},
		store:  persistence.NewMemoryStore(),
		vault:  custody.NewVault(),
		events: &recorder{},
	}

	rq.NoError(e.vault.RegisterToken(usdc, "USDC", 6))
	rq.NoError(e.vault.RegisterToken(dai, "DAI", 18))

	e.reader = oracle.NewReader(readerAddr, admin).WithClock(e.clock.Now)
	e.ethFeed = chainlink.NewManualFeed(common.HexToAddress("0xfeed01"), 8, value.USD(2800)).WithClock(e.clock.Now)
	e.usdcFeed = chainlink.NewManualFeed(common.HexToAddress("0xfeed02"), 8, big.NewInt(99_977_674)).WithClock(e.clock.Now)
	e.daiFeed = chainlink.NewManualFeed(common.HexToAddress("0xfeed03"), 8, value.USD(1)).WithClock(e.clock.Now)

	rq.NoError(e.reader.SetNativePriceFeed(e.ctx, admin, e.ethFeed))
	rq.NoError(e.reader.SetTokenPriceFeed(e.ctx, admin, usdc, e.usdcFeed))
	rq.NoError(e.reader.SetTokenPriceFeed(e.ctx, admin, dai, e.daiFeed))

	e.registry = e.newRegistry()
	e.vault.OnReceive(registryAddr, e.registry.Receive)
	rq.NoError(e.registry.Initialize(e.ctx, admin))

	rq.NoError(e.vault.MintNFT(kitties, seller, tokenID))
	rq.NoError(e.vault.ApproveNFT(kitties, seller, registryAddr, tokenID))

	e.vault.Deposit(alice, value.MustUnits("10", 18))
	e.vault.Deposit(bob, value.MustUnits("10", 18))
	e.fundToken(usdc, bob, value.MustUnits("10000", 6))

	return e
}

func (e *env) newRegistry(policies ...auction.FeePolicy) *auction.Registry {
	cfg := auction.Config{
		Address:        registryAddr,
		NativeDecimals: 18,
		MinDuration:    600 * time.Second,
		RefundTimeout:  time.Second,
	}

	return auction.NewRegistry(
		cfg,
		e.store,
		auction.FromDirectory(oracle.NewDirectory(e.reader)),
		e.vault,
		e.vault,
		e.vault,
	).
		WithClock(e.clock.Now).
		WithPublisher(e.events).
		WithFeePolicies(policies...)
}

func (e *env) fundToken(token value.Currency, owner value.Address, amount *big.Int) {
	_ = e.vault.Mint(token, owner, amount)
	_ = e.vault.Approve(token, owner, registryAddr, amount)
}

func (e *env) create(t *testing.T) uint64 {
	t.Helper()

	id, err := e.registry.CreateAuction(e.ctx, seller, auction.CreateParams{
		OracleReader:  readerAddr,
		AssetContract: kitties,
		AssetID:       tokenID,
		StartPriceUSD: value.USD(1000),
		Duration:      auctionDuration,
	})
	require.NoError(t, err)

	return id
}

// expire сдвигает время за дедлайн и обновляет фиды, чтобы они не устарели.
func (e *env) expire() {
	e.clock.Advance(auctionDuration + time.Second)
	e.ethFeed.UpdateAnswer(value.USD(2800))
	e.usdcFeed.UpdateAnswer(big.NewInt(99_977_674))
	e.daiFeed.UpdateAnswer(value.USD(1))
}

func (e *env) nftOwner(t *testing.T) value.Address {
	t.Helper()

	owner, err := e.vault.OwnerOf(e.ctx, kitties, tokenID)
	require.NoError(t, err)
	return owner
}

func eth(amount string) *big.Int {
	return value.MustUnits(amount, 18)
}

func usdcUnits(amount string) *big.Int {
	return value.MustUnits(amount, 6)
}
