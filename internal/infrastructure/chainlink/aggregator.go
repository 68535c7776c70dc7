package chainlink

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/patrickmn/go-cache"

	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
)

const aggregatorV3ABI = `[
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"latestRoundData","outputs":[
{"internalType":"uint80","name":"roundId","type":"uint80"},
{"internalType":"int256","name":"answer","type":"int256"},
{"internalType":"uint256","name":"startedAt","type":"uint256"},
{"internalType":"uint256","name":"updatedAt","type":"uint256"},
{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}]`

type contractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client читает агрегаторы Chainlink через JSON-RPC узла.
type Client struct {
	caller   contractCaller
	abi      abi.ABI
	decimals *cache.Cache
}

// Dial подключается к узлу; httpClient позволяет подставить логирующий транспорт.
func Dial(ctx context.Context, rpcURL string, httpClient *http.Client) (*Client, error) {
	rpcClient, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("rpc.DialOptions: %w", err)
	}

	return NewClient(ethclient.NewClient(rpcClient))
}

func NewClient(caller contractCaller) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(aggregatorV3ABI))
	if err != nil {
		return nil, fmt.Errorf("abi.JSON: %w", err)
	}

	return &Client{
		caller:   caller,
		abi:      parsed,
		decimals: cache.New(cache.NoExpiration, 0),
	}, nil
}

// Feed возвращает фид по адресу агрегатора, проверив его точность.
func (c *Client) Feed(ctx context.Context, address value.Address) (*AggregatorFeed, error) {
	decimals, err := c.Decimals(ctx, address)
	if err != nil {
		return nil, err
	}

	if decimals != value.USDDecimals {
		return nil, fmt.Errorf("aggregator %s reports %d decimals, want %d", address.Hex(), decimals, value.USDDecimals)
	}

	return &AggregatorFeed{client: c, address: address}, nil
}

// Decimals читает точность агрегатора; значение неизменно и кэшируется.
func (c *Client) Decimals(ctx context.Context, address value.Address) (uint8, error) {
	if cached, ok := c.decimals.Get(address.Hex()); ok {
		return cached.(uint8), nil //nolint:forcetypeassert
	}

	out, err := c.call(ctx, address, "decimals")
	if err != nil {
		return 0, err
	}

	var decimals uint8
	if err := c.abi.UnpackIntoInterface(&decimals, "decimals", out); err != nil {
		return 0, fmt.Errorf("abi.Unpack decimals: %w", err)
	}

	c.decimals.Set(address.Hex(), decimals, cache.NoExpiration)

	return decimals, nil
}

func (c *Client) call(ctx context.Context, address value.Address, method string) ([]byte, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("abi.Pack %s: %w", method, err)
	}

	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("CallContract %s: %w", method, err)
	}

	return out, nil
}

// AggregatorFeed: oracle.Feed поверх контракта AggregatorV3Interface.
type AggregatorFeed struct {
	client  *Client
	address value.Address
}

func (f *AggregatorFeed) Address() value.Address {
	return f.address
}

func (f *AggregatorFeed) LatestRoundData(ctx context.Context) (oracle.RoundData, error) {
	out, err := f.client.call(ctx, f.address, "latestRoundData")
	if err != nil {
		return oracle.RoundData{}, err
	}

	var round struct {
		RoundId         *big.Int //nolint:revive,stylecheck // имя задаёт ABI
		Answer          *big.Int
		StartedAt       *big.Int
		UpdatedAt       *big.Int
		AnsweredInRound *big.Int
	}
	if err := f.client.abi.UnpackIntoInterface(&round, "latestRoundData", out); err != nil {
		return oracle.RoundData{}, fmt.Errorf("abi.Unpack latestRoundData: %w", err)
	}

	return oracle.RoundData{
		RoundID:         round.RoundId,
		Answer:          round.Answer,
		StartedAt:       unixTime(round.StartedAt),
		UpdatedAt:       unixTime(round.UpdatedAt),
		AnsweredInRound: round.AnsweredInRound,
	}, nil
}

func unixTime(v *big.Int) time.Time {
	if v == nil || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0)
}
