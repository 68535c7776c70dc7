package server_test

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/infrastructure/chainlink"
	"nft_auction/internal/infrastructure/custody"
	"nft_auction/internal/infrastructure/eventbus"
	"nft_auction/internal/infrastructure/persistence"
	"nft_auction/internal/server"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/middlewarex"
	"nft_auction/pkg/rest"
	"nft_auction/pkg/tests"
)

var (
	registryAddr = common.HexToAddress("0x0000000000000000000000000000000000001000")
	readerAddr   = common.HexToAddress("0x0000000000000000000000000000000000002000")
	kitties      = common.HexToAddress("0x0000000000000000000000000000000000003000")
	admin        = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	seller       = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	alice        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

const (
	sellerToken = "seller-token"
	aliceToken  = "alice-token"
)

type testServer struct {
	url      string
	registry *auction.Registry
	vault    *custody.Vault
	client   tests.APIClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	rq := require.New(t)

	ctx := context.Background()
	vault := custody.NewVault()
	hub := eventbus.NewHub()

	reader := oracle.NewReader(readerAddr, admin)
	ethFeed := chainlink.NewManualFeed(common.HexToAddress("0xfeed01"), 8, value.USD(2800))
	rq.NoError(reader.SetNativePriceFeed(ctx, admin, ethFeed))

	directory := oracle.NewDirectory(reader)

	registry := auction.NewRegistry(
		auction.Config{Address: registryAddr, MinDuration: 600 * time.Second, RefundTimeout: time.Second},
		persistence.NewMemoryStore(),
		auction.FromDirectory(directory),
		vault,
		vault,
		vault,
	).WithPublisher(hub)
	vault.OnReceive(registryAddr, registry.Receive)
	rq.NoError(registry.Initialize(ctx, admin))

	srv := server.NewServer(
		server.NewAuctionServer(registry),
		server.NewFeeServer(registry),
		server.NewOracleServer(func(address value.Address) (server.PriceReader, bool) {
			return directory.Get(address)
		}),
		server.NewStreamServer(registry, hub),
	).WithCustody(server.NewCustodyServer(vault)).WithAuthenticator(middlewarex.Authenticate(map[string]contextx.UserID{
		sellerToken: contextx.UserID(seller.Hex()),
		aliceToken:  contextx.UserID(alice.Hex()),
	}))

	router := chi.NewRouter()
	router.Use(middlewarex.TraceID, middlewarex.Logger)
	srv.RegisterRoutes(router)

	httpServer := httptest.NewServer(router)
	t.Cleanup(httpServer.Close)

	return &testServer{
		url:      httpServer.URL,
		registry: registry,
		vault:    vault,
		client:   tests.NewAPIClient(httpServer.URL, httpServer.Client()),
	}
}

func (s *testServer) createAuction(t *testing.T) uint64 {
	t.Helper()
	rq := require.New(t)
	ctx := context.Background()

	var created rest.CreateAuctionResponse

	resp, err := s.client.As(sellerToken).Post(ctx, "/v1/custody/nfts", nil, rest.MintNFTRequest{
		Contract: kitties.Hex(),
		To:       seller.Hex(),
		TokenID:  "7",
	}, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)

	resp, err = s.client.As(sellerToken).Post(ctx, "/v1/custody/nfts/approve", nil, rest.ApproveNFTRequest{
		Contract: kitties.Hex(),
		Operator: registryAddr.Hex(),
		TokenID:  "7",
	}, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)

	resp, err = s.client.As(sellerToken).Post(ctx, "/v1/auctions", nil, rest.CreateAuctionRequest{
		OracleReader:    readerAddr.Hex(),
		AssetContract:   kitties.Hex(),
		AssetID:         "7",
		StartPriceUSD:   "1000",
		DurationSeconds: 3600,
	}, &created, nil)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)

	return created.ID
}

func TestServer_AuctionFlow(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := newTestServer(t)

	id := s.createAuction(t)
	rq.Equal(uint64(0), id)

	var detail rest.Auction

	resp, err := s.client.Get(ctx, "/v1/auctions/0", nil, &detail, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(seller.Hex(), detail.Seller)
	rq.Equal("1000", detail.StartPriceUSD)
	rq.Equal("created", detail.State)
	rq.Equal(registryAddr, s.mustOwner(t))

	resp, err = s.client.As(aliceToken).Post(ctx, "/v1/custody/deposits", nil, rest.DepositRequest{
		To:     alice.Hex(),
		Amount: value.MustUnits("1", 18).String(),
	}, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)

	var apiErr rest.Error

	resp, err = s.client.As(aliceToken).Post(ctx, "/v1/auctions/0/bids/native", nil, rest.NativeBidRequest{
		Amount: value.MustUnits("0.1", 18).String(),
	}, nil, &apiErr)
	rq.NoError(err)
	rq.Equal(http.StatusConflict, resp.StatusCode)
	rq.Equal(rest.ErrorCode(errcodes.BidMustBeAtLeastStartingPrice), apiErr.Code)

	resp, err = s.client.As(aliceToken).Post(ctx, "/v1/auctions/0/bids/native", nil, rest.NativeBidRequest{
		Amount: value.MustUnits("0.5", 18).String(),
	}, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)

	var balance rest.Balance

	resp, err = s.client.Get(ctx, "/v1/custody/balances/"+alice.Hex()+"/native", nil, &balance, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(value.MustUnits("0.5", 18).String(), balance.Amount)

	var list rest.AuctionList

	resp, err = s.client.Post(ctx, "/v1/auctions/batch", nil, rest.BatchAuctionsRequest{IDs: []uint64{0}}, &list, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Len(list.Items, 1)
	rq.Equal(alice.Hex(), list.Items[0].HighestBidder)

	var remaining rest.RemainingTime

	resp, err = s.client.Get(ctx, "/v1/auctions/0/remaining", nil, &remaining, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.InDelta(3600, remaining.Seconds, 5)

	apiErr = rest.Error{}

	resp, err = s.client.As(sellerToken).Post(ctx, "/v1/auctions/0/end", nil, struct{}{}, nil, &apiErr)
	rq.NoError(err)
	rq.Equal(http.StatusConflict, resp.StatusCode)
	rq.Equal(rest.ErrorCode(errcodes.AuctionHasNotEndedYet), apiErr.Code)
	rq.NotEmpty(apiErr.SupportID)
}

func TestServer_CallerHeaderIgnored(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := newTestServer(t)

	s.createAuction(t)
	s.vault.Deposit(seller, value.MustUnits("1", 18))

	resp, err := s.client.As(aliceToken).Post(ctx, "/v1/custody/deposits", nil, rest.DepositRequest{
		To:     alice.Hex(),
		Amount: value.MustUnits("1", 18).String(),
	}, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)

	// токен alice, заголовок продавца: ставка засчитывается alice
	headers := http.Header{"X-Caller": []string{seller.Hex()}}
	resp, err = s.client.As(aliceToken).Post(ctx, "/v1/auctions/0/bids/native", headers, rest.NativeBidRequest{
		Amount: value.MustUnits("0.5", 18).String(),
	}, nil, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)

	a, err := s.registry.GetAuction(ctx, 0)
	rq.NoError(err)
	rq.Equal(alice, a.HighestBidder)
	rq.Equal(0, value.MustUnits("1", 18).Cmp(s.vault.NativeBalance(seller)))
}

func (s *testServer) mustOwner(t *testing.T) value.Address {
	t.Helper()

	owner, err := s.vault.OwnerOf(context.Background(), kitties, big.NewInt(7))
	require.NoError(t, err)

	return owner
}

func TestServer_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	testCases := []struct {
		name   string
		call   func(dest *rest.Error) (*http.Response, error)
		status int
		code   errcodes.ErrorCode
	}{
		{
			name: "unknown route",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Get(ctx, "/v1/nothing", nil, nil, dest)
			},
			status: http.StatusNotFound,
			code:   errcodes.UnknownEntryPoint,
		},
		{
			name: "unknown method",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Post(ctx, "/v1/auctions/0/remaining", nil, struct{}{}, nil, dest)
			},
			status: http.StatusNotFound,
			code:   errcodes.UnknownEntryPoint,
		},
		{
			name: "missing token",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Post(ctx, "/v1/auctions/0/end", nil, struct{}{}, nil, dest)
			},
			status: http.StatusUnauthorized,
			code:   errcodes.Unauthorized,
		},
		{
			name: "caller header without token",
			call: func(dest *rest.Error) (*http.Response, error) {
				headers := http.Header{"X-Caller": []string{seller.Hex()}}
				return s.client.Post(ctx, "/v1/auctions/0/end", headers, struct{}{}, nil, dest)
			},
			status: http.StatusUnauthorized,
			code:   errcodes.Unauthorized,
		},
		{
			name: "unknown token",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.As("forged").Post(ctx, "/v1/fees/withdraw", nil, rest.WithdrawFeesRequest{
					Currency:  "native",
					Recipient: alice.Hex(),
					Amount:    "1",
				}, nil, dest)
			},
			status: http.StatusUnauthorized,
			code:   errcodes.Unauthorized,
		},
		{
			name: "invalid auction id",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Get(ctx, "/v1/auctions/abc", nil, nil, dest)
			},
			status: http.StatusBadRequest,
			code:   errcodes.InvalidAuctionID,
		},
		{
			name: "auction does not exist",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Get(ctx, "/v1/auctions/42", nil, nil, dest)
			},
			status: http.StatusNotFound,
			code:   errcodes.AuctionDoesNotExist,
		},
		{
			name: "invalid json",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.As(sellerToken).PostJSON(ctx, "/v1/auctions", nil, "{", nil, dest)
			},
			status: http.StatusBadRequest,
			code:   errcodes.ValidationError,
		},
		{
			name: "withdraw by non admin",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.As(aliceToken).Post(ctx, "/v1/fees/withdraw", nil, rest.WithdrawFeesRequest{
					Currency:  "native",
					Recipient: alice.Hex(),
					Amount:    "1",
				}, nil, dest)
			},
			status: http.StatusForbidden,
			code:   errcodes.OnlyAdmin,
		},
		{
			name: "unknown oracle reader",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Get(ctx, "/v1/oracle/"+alice.Hex()+"/price/native", nil, nil, dest)
			},
			status: http.StatusNotFound,
			code:   errcodes.NotFound,
		},
		{
			name: "price feed not set",
			call: func(dest *rest.Error) (*http.Response, error) {
				return s.client.Get(ctx, "/v1/oracle/"+readerAddr.Hex()+"/price/"+kitties.Hex(), nil, nil, dest)
			},
			status: http.StatusServiceUnavailable,
			code:   errcodes.PriceFeedNotSet,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			var apiErr rest.Error

			resp, err := tc.call(&apiErr)
			rq.NoError(err)
			rq.Equal(tc.status, resp.StatusCode)
			rq.Equal(rest.ErrorCode(tc.code), apiErr.Code)
		})
	}
}

func TestServer_OraclePrice(t *testing.T) {
	rq := require.New(t)
	s := newTestServer(t)

	var price rest.Price

	resp, err := s.client.Get(context.Background(), "/v1/oracle/"+readerAddr.Hex()+"/price/native", nil, &price, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(value.USD(2800).String(), price.Price)
	rq.Equal("2800", price.PriceUSD)
}

func TestServer_FeeBalance(t *testing.T) {
	rq := require.New(t)
	s := newTestServer(t)

	var balance rest.FeeBalance

	resp, err := s.client.Get(context.Background(), "/v1/fees/native", nil, &balance, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal("0", balance.Amount)
}

func TestServer_Stream(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	s := newTestServer(t)

	id := s.createAuction(t)

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/v1/auctions/0/stream"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	rq.NoError(err)
	rq.Equal(http.StatusSwitchingProtocols, resp.StatusCode)
	defer conn.Close()

	rq.NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))

	var created rest.Event
	rq.NoError(conn.ReadJSON(&created))
	rq.Equal("AuctionCreated", created.Type)
	rq.Equal(seller.Hex(), created.Actor)

	s.vault.Deposit(alice, value.MustUnits("1", 18))
	rq.NoError(s.registry.PlaceBidNative(ctx, alice, id, value.MustUnits("0.5", 18)))

	var bid rest.Event
	rq.NoError(conn.ReadJSON(&bid))
	rq.Equal("NewHighestBid", bid.Type)
	rq.Equal(alice.Hex(), bid.Actor)
	rq.Equal(value.MustUnits("0.5", 18).String(), bid.Amount)
}

func TestServer_StreamUnknownAuction(t *testing.T) {
	rq := require.New(t)
	s := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/v1/auctions/9/stream"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	rq.ErrorIs(err, websocket.ErrBadHandshake)
	rq.Equal(http.StatusNotFound, resp.StatusCode)
}
