package worker_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

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
	admin        = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	seller       = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	alice        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

const auctionDuration = time.Hour

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

type env struct {
	ctx      context.Context
	clock    *clock
	vault    *custody.Vault
	feed     *chainlink.ManualFeed
	registry *auction.Registry
}

func newEnv(t *testing.T, publisher auction.Publisher) *env {
	t.Helper()
	rq := require.New(t)

	e := &env{
		ctx:   context.Background(),
		clock: &clock{now: time.Unix(1_700_000_000, 0)},
		vault: custody.NewVault(),
	}

	reader := oracle.NewReader(readerAddr, admin).WithClock(e.clock.Now)
	e.feed = chainlink.NewManualFeed(common.HexToAddress("0xfeed01"), 8, value.USD(2800)).WithClock(e.clock.Now)
	rq.NoError(reader.SetNativePriceFeed(e.ctx, admin, e.feed))

	e.registry = auction.NewRegistry(
		auction.Config{Address: registryAddr, MinDuration: 600 * time.Second, RefundTimeout: time.Second},
		persistence.NewMemoryStore(),
		auction.FromDirectory(oracle.NewDirectory(reader)),
		e.vault,
		e.vault,
		e.vault,
	).WithClock(e.clock.Now)
	if publisher != nil {
		e.registry = e.registry.WithPublisher(publisher)
	}

	e.vault.OnReceive(registryAddr, e.registry.Receive)
	rq.NoError(e.registry.Initialize(e.ctx, admin))

	e.vault.Deposit(alice, value.MustUnits("10", 18))

	return e
}

func (e *env) create(t *testing.T, tokenID int64, duration time.Duration) uint64 {
	t.Helper()
	rq := require.New(t)

	id := big.NewInt(tokenID)
	rq.NoError(e.vault.MintNFT(kitties, seller, id))
	rq.NoError(e.vault.ApproveNFT(kitties, seller, registryAddr, id))

	auctionID, err := e.registry.CreateAuction(e.ctx, seller, auction.CreateParams{
		OracleReader:  readerAddr,
		AssetContract: kitties,
		AssetID:       id,
		StartPriceUSD: value.USD(1000),
		Duration:      duration,
	})
	rq.NoError(err)

	return auctionID
}

func (e *env) advance(d time.Duration) {
	e.clock.Advance(d)
	e.feed.UpdateAnswer(value.USD(2800))
}

func (e *env) owner(t *testing.T, tokenID int64) value.Address {
	t.Helper()

	owner, err := e.vault.OwnerOf(e.ctx, kitties, big.NewInt(tokenID))
	require.NoError(t, err)

	return owner
}
