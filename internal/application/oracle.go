package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"

	"nft_auction/internal/config"
	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/infrastructure/chainlink"
	"nft_auction/internal/server"
	"nft_auction/internal/transport/bot/handler"
	"nft_auction/pkg/httpx"
	"nft_auction/pkg/logx"
)

type oracles struct {
	directory *oracle.Directory
	reader    *oracle.Reader
	manual    []*chainlink.ManualFeed
}

// newOracles регистрирует читателя цен: агрегаторы Chainlink при заданном
// RPC, иначе ручные фиды из конфигурации.
func newOracles(ctx context.Context, cfg config.Config, owner value.Address, publisher oracle.Publisher) (*oracles, error) {
	address, err := cfg.Oracle.ReaderAddr()
	if err != nil {
		return nil, fmt.Errorf("ORACLE_READER_ADDRESS: %w", err)
	}

	o := &oracles{reader: oracle.NewReader(address, owner).WithPublisher(publisher)}
	o.directory = oracle.NewDirectory(o.reader)

	if cfg.Chain.Enabled() {
		err = o.dialFeeds(ctx, cfg, owner)
	} else {
		err = o.manualFeeds(ctx, cfg.Oracle, owner)
	}
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (o *oracles) dialFeeds(ctx context.Context, cfg config.Config, owner value.Address) error {
	feeds, err := cfg.Oracle.FeedAddrs()
	if err != nil {
		return err
	}

	var transport http.RoundTripper = httpx.NewLoggingRoundTripper(
		http.DefaultTransport,
		httpx.WithLogFieldMaxLen(cfg.HTTP.LogFieldMaxLen),
		httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker(cfg.HTTP.SensitiveFields...)),
	)
	if cfg.Chain.Token != "" {
		transport = httpx.NewAuthBearerRoundTripper(transport, staticToken(cfg.Chain.Token))
	}

	client, err := chainlink.Dial(ctx, cfg.Chain.RPCURL, &http.Client{
		Transport: transport,
		Timeout:   cfg.Chain.RPCTimeout,
	})
	if err != nil {
		return fmt.Errorf("chainlink.Dial: %w", err)
	}

	for currency, address := range feeds {
		feed, err := client.Feed(ctx, address)
		if err != nil {
			return fmt.Errorf("chainlink feed %s: %w", value.CurrencyLabel(currency), err)
		}

		if err := o.setFeed(ctx, owner, currency, feed); err != nil {
			return err
		}
	}

	logger(ctx).Info("chainlink feeds registered", slog.Int("count", len(feeds)))

	return nil
}

func (o *oracles) manualFeeds(ctx context.Context, cfg config.Oracle, owner value.Address) error {
	for label, usd := range cfg.ManualPrices {
		currency, err := config.ParseCurrency(label)
		if err != nil {
			return fmt.Errorf("ORACLE_MANUAL_PRICES: %w", err)
		}

		answer, err := value.Units(usd, value.USDDecimals)
		if err != nil {
			return fmt.Errorf("ORACLE_MANUAL_PRICES %s: %w", label, err)
		}

		feed := chainlink.NewManualFeed(manualFeedAddress(currency), value.USDDecimals, answer)
		if err := o.setFeed(ctx, owner, currency, feed); err != nil {
			return err
		}
		o.manual = append(o.manual, feed)
	}

	logger(ctx).Warn("manual price feeds registered", slog.Int("count", len(o.manual)))

	return nil
}

func (o *oracles) setFeed(ctx context.Context, owner value.Address, currency value.Currency, feed oracle.Feed) error {
	var err error
	if value.IsNative(currency) {
		err = o.reader.SetNativePriceFeed(ctx, owner, feed)
	} else {
		err = o.reader.SetTokenPriceFeed(ctx, owner, currency, feed)
	}
	if err != nil {
		return fmt.Errorf("set price feed %s: %w", value.CurrencyLabel(currency), err)
	}
	return nil
}

func (o *oracles) withPublisher(p oracle.Publisher) {
	o.reader.WithPublisher(p)
}

// runHeartbeats не даёт ручным фидам устареть.
func (o *oracles) runHeartbeats(ctx context.Context, g *errgroup.Group, interval time.Duration) {
	if interval <= 0 {
		return
	}

	for _, feed := range o.manual {
		g.Go(func() error {
			return feed.Heartbeat(ctx, interval)
		})
	}
}

func (o *oracles) serverReaders() server.PriceReaders {
	return func(address value.Address) (server.PriceReader, bool) {
		r, ok := o.directory.Get(address)
		if !ok {
			return nil, false
		}
		return r, true
	}
}

func (o *oracles) botReaders() handler.PriceReaders {
	return func(address value.Address) (handler.PriceReader, bool) {
		r, ok := o.directory.Get(address)
		if !ok {
			return nil, false
		}
		return r, true
	}
}

// manualFeedAddress выводит стабильный адрес ручного фида из валюты.
func manualFeedAddress(currency value.Currency) value.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("manual-feed:" + currency.Hex())))
}

// staticToken: ключ RPC-провайдера, не требующий обновления.
type staticToken string

func (staticToken) Authenticate(context.Context) error {
	return nil
}

func (t staticToken) BearerToken() string {
	return string(t)
}
